package handler

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// PayslipServiceClient calls the payslip service over Connect with the
// struct JSON codec.
type PayslipServiceClient struct {
	upload    *connect.Client[UploadPayslipsRequest, UploadPayslipsResponse]
	list      *connect.Client[ListPayslipsRequest, ListPayslipsResponse]
	stats     *connect.Client[GetStatsRequest, GetStatsResponse]
	delete    *connect.Client[DeletePayslipRequest, DeletePayslipResponse]
	deleteAll *connect.Client[DeleteAllPayslipsRequest, DeleteAllPayslipsResponse]
	export    *connect.Client[ExportPayslipsRequest, ExportPayslipsResponse]
	reprocess *connect.Client[ReprocessPayslipsRequest, ReprocessPayslipsResponse]
}

// NewPayslipServiceClient builds a client for the service at baseURL.
func NewPayslipServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PayslipServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &PayslipServiceClient{
		upload:    connect.NewClient[UploadPayslipsRequest, UploadPayslipsResponse](httpClient, baseURL+UploadPayslipsProcedure, opts...),
		list:      connect.NewClient[ListPayslipsRequest, ListPayslipsResponse](httpClient, baseURL+ListPayslipsProcedure, opts...),
		stats:     connect.NewClient[GetStatsRequest, GetStatsResponse](httpClient, baseURL+GetStatsProcedure, opts...),
		delete:    connect.NewClient[DeletePayslipRequest, DeletePayslipResponse](httpClient, baseURL+DeletePayslipProcedure, opts...),
		deleteAll: connect.NewClient[DeleteAllPayslipsRequest, DeleteAllPayslipsResponse](httpClient, baseURL+DeleteAllPayslipsProcedure, opts...),
		export:    connect.NewClient[ExportPayslipsRequest, ExportPayslipsResponse](httpClient, baseURL+ExportPayslipsProcedure, opts...),
		reprocess: connect.NewClient[ReprocessPayslipsRequest, ReprocessPayslipsResponse](httpClient, baseURL+ReprocessPayslipsProcedure, opts...),
	}
}

func (c *PayslipServiceClient) UploadPayslips(ctx context.Context, req *UploadPayslipsRequest) (*UploadPayslipsResponse, error) {
	return call(ctx, c.upload, req)
}

func (c *PayslipServiceClient) ListPayslips(ctx context.Context) (*ListPayslipsResponse, error) {
	return call(ctx, c.list, &ListPayslipsRequest{})
}

func (c *PayslipServiceClient) GetStats(ctx context.Context) (*GetStatsResponse, error) {
	return call(ctx, c.stats, &GetStatsRequest{})
}

func (c *PayslipServiceClient) DeletePayslip(ctx context.Context, id int64) error {
	_, err := call(ctx, c.delete, &DeletePayslipRequest{ID: id})
	return err
}

func (c *PayslipServiceClient) DeleteAllPayslips(ctx context.Context) (*DeleteAllPayslipsResponse, error) {
	return call(ctx, c.deleteAll, &DeleteAllPayslipsRequest{})
}

func (c *PayslipServiceClient) ExportPayslips(ctx context.Context, format string) (*ExportPayslipsResponse, error) {
	return call(ctx, c.export, &ExportPayslipsRequest{Format: format})
}

func (c *PayslipServiceClient) ReprocessPayslips(ctx context.Context) (*ReprocessPayslipsResponse, error) {
	return call(ctx, c.reprocess, &ReprocessPayslipsRequest{})
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
