package handler

import (
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/service"
)

// PayslipServiceName is the fully-qualified name of the payslip service.
const PayslipServiceName = "payslip.v1.PayslipService"

// Procedure paths, one per RPC.
const (
	UploadPayslipsProcedure    = "/payslip.v1.PayslipService/UploadPayslips"
	ListPayslipsProcedure      = "/payslip.v1.PayslipService/ListPayslips"
	GetStatsProcedure          = "/payslip.v1.PayslipService/GetStats"
	DeletePayslipProcedure     = "/payslip.v1.PayslipService/DeletePayslip"
	DeleteAllPayslipsProcedure = "/payslip.v1.PayslipService/DeleteAllPayslips"
	ExportPayslipsProcedure    = "/payslip.v1.PayslipService/ExportPayslips"
	ReprocessPayslipsProcedure = "/payslip.v1.PayslipService/ReprocessPayslips"
)

// File is one uploaded document. Data is base64 on the wire.
type File struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

type UploadPayslipsRequest struct {
	Files []File `json:"files"`
}

type UploadPayslipsResponse struct {
	Results []service.UploadResult `json:"results"`
}

type ListPayslipsRequest struct{}

type ListPayslipsResponse struct {
	Payslips []*payslip.Record `json:"payslips"`
}

type GetStatsRequest struct{}

type GetStatsResponse = service.Stats

type DeletePayslipRequest struct {
	ID int64 `json:"id"`
}

type DeletePayslipResponse struct{}

type DeleteAllPayslipsRequest struct{}

type DeleteAllPayslipsResponse struct {
	Deleted int64 `json:"deleted"`
}

type ExportPayslipsRequest struct {
	// Format is "csv" (default) or "xlsx".
	Format string `json:"format"`
}

type ExportPayslipsResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type ReprocessPayslipsRequest struct{}

type ReprocessPayslipsResponse = service.ReprocessSummary
