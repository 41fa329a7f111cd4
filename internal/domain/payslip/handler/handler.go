// Package handler implements the PayslipService Connect RPC handlers.
package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/export"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/parser"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/repository"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/service"
)

// PayslipService is what the handlers need from the service layer.
type PayslipService interface {
	Ingest(ctx context.Context, uploads []service.Upload) ([]service.UploadResult, error)
	List(ctx context.Context) ([]*payslip.Record, error)
	Stats(ctx context.Context) (*service.Stats, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Export(ctx context.Context, format export.Format, w io.Writer) error
	Reprocess(ctx context.Context) (*service.ReprocessSummary, error)
}

var _ PayslipService = (*service.PayslipService)(nil)

// PayslipHandler handles PayslipService RPCs
type PayslipHandler struct {
	svc    PayslipService
	logger *slog.Logger
}

// NewPayslipHandler creates a new payslip handler
func NewPayslipHandler(svc PayslipService, logger *slog.Logger) *PayslipHandler {
	return &PayslipHandler{
		svc:    svc,
		logger: logger,
	}
}

// NewPayslipServiceHandler mounts every procedure and returns the path prefix
// to register the handler under.
func NewPayslipServiceHandler(h *PayslipHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(UploadPayslipsProcedure, connect.NewUnaryHandler(UploadPayslipsProcedure, h.UploadPayslips, opts...))
	mux.Handle(ListPayslipsProcedure, connect.NewUnaryHandler(ListPayslipsProcedure, h.ListPayslips, opts...))
	mux.Handle(GetStatsProcedure, connect.NewUnaryHandler(GetStatsProcedure, h.GetStats, opts...))
	mux.Handle(DeletePayslipProcedure, connect.NewUnaryHandler(DeletePayslipProcedure, h.DeletePayslip, opts...))
	mux.Handle(DeleteAllPayslipsProcedure, connect.NewUnaryHandler(DeleteAllPayslipsProcedure, h.DeleteAllPayslips, opts...))
	mux.Handle(ExportPayslipsProcedure, connect.NewUnaryHandler(ExportPayslipsProcedure, h.ExportPayslips, opts...))
	mux.Handle(ReprocessPayslipsProcedure, connect.NewUnaryHandler(ReprocessPayslipsProcedure, h.ReprocessPayslips, opts...))

	return "/" + PayslipServiceName + "/", mux
}

// UploadPayslips ingests a batch of PDF documents. Per-file failures are
// reported in the results; only an empty batch fails the call.
func (h *PayslipHandler) UploadPayslips(ctx context.Context, req *connect.Request[UploadPayslipsRequest]) (*connect.Response[UploadPayslipsResponse], error) {
	uploads := make([]service.Upload, 0, len(req.Msg.Files))
	for _, f := range req.Msg.Files {
		uploads = append(uploads, service.Upload{Filename: f.Filename, Data: f.Data})
	}

	results, err := h.svc.Ingest(ctx, uploads)
	if err != nil {
		return nil, h.toConnectError("failed to ingest payslips", err)
	}

	return connect.NewResponse(&UploadPayslipsResponse{Results: results}), nil
}

// ListPayslips returns every stored payslip ordered by period.
func (h *PayslipHandler) ListPayslips(ctx context.Context, _ *connect.Request[ListPayslipsRequest]) (*connect.Response[ListPayslipsResponse], error) {
	recs, err := h.svc.List(ctx)
	if err != nil {
		return nil, h.toConnectError("failed to list payslips", err)
	}
	return connect.NewResponse(&ListPayslipsResponse{Payslips: recs}), nil
}

// GetStats returns the dashboard view.
func (h *PayslipHandler) GetStats(ctx context.Context, _ *connect.Request[GetStatsRequest]) (*connect.Response[GetStatsResponse], error) {
	st, err := h.svc.Stats(ctx)
	if err != nil {
		return nil, h.toConnectError("failed to compute stats", err)
	}
	return connect.NewResponse(st), nil
}

func (h *PayslipHandler) DeletePayslip(ctx context.Context, req *connect.Request[DeletePayslipRequest]) (*connect.Response[DeletePayslipResponse], error) {
	if req.Msg.ID <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}
	if err := h.svc.Delete(ctx, req.Msg.ID); err != nil {
		return nil, h.toConnectError("failed to delete payslip", err)
	}
	return connect.NewResponse(&DeletePayslipResponse{}), nil
}

func (h *PayslipHandler) DeleteAllPayslips(ctx context.Context, _ *connect.Request[DeleteAllPayslipsRequest]) (*connect.Response[DeleteAllPayslipsResponse], error) {
	n, err := h.svc.DeleteAll(ctx)
	if err != nil {
		return nil, h.toConnectError("failed to delete payslips", err)
	}
	return connect.NewResponse(&DeleteAllPayslipsResponse{Deleted: n}), nil
}

// ExportPayslips renders every payslip as a CSV or XLSX file.
func (h *PayslipHandler) ExportPayslips(ctx context.Context, req *connect.Request[ExportPayslipsRequest]) (*connect.Response[ExportPayslipsResponse], error) {
	format, err := export.ParseFormat(req.Msg.Format)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	var buf bytes.Buffer
	if err := h.svc.Export(ctx, format, &buf); err != nil {
		return nil, h.toConnectError("failed to export payslips", err)
	}

	return connect.NewResponse(&ExportPayslipsResponse{
		Filename:    "payslips." + string(format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}), nil
}

// ReprocessPayslips re-parses rows written by an older parser version.
func (h *PayslipHandler) ReprocessPayslips(ctx context.Context, _ *connect.Request[ReprocessPayslipsRequest]) (*connect.Response[ReprocessPayslipsResponse], error) {
	sum, err := h.svc.Reprocess(ctx)
	if err != nil {
		return nil, h.toConnectError("failed to reprocess payslips", err)
	}
	return connect.NewResponse(sum), nil
}

func (h *PayslipHandler) toConnectError(msg string, err error) error {
	switch {
	case service.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, repository.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, parser.ErrExtractionTimeout), errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	h.logger.Error(msg, slog.Any("error", err))
	return connect.NewError(connect.CodeInternal, err)
}
