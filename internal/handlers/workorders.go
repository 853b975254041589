package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/services/qc"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

func (r *Router) dashboard(w http.ResponseWriter, req *http.Request) {
	d, err := r.svc.Dashboard(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (r *Router) listWorkOrders(w http.ResponseWriter, req *http.Request) {
	status := req.URL.Query().Get("status")
	switch status {
	case "", models.StatusOpen, models.StatusCompleted:
	default:
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "status: valor inválido", "field": "status"})
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.ListWorkOrders(req.Context(), qc.WorkOrderFilter{Status: status, Limit: limit})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) listOpenWorkOrders(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.ListWorkOrders(req.Context(), qc.WorkOrderFilter{Status: models.StatusOpen})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createWorkOrder(w http.ResponseWriter, req *http.Request) {
	var in qc.CreateWorkOrderInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	wo, err := r.svc.CreateWorkOrder(req.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, wo)
}

func (r *Router) getWorkOrder(w http.ResponseWriter, req *http.Request) {
	det, err := r.svc.WorkOrderDetail(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, det)
}

func (r *Router) generateSamples(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Qty  int `json:"qty"`
		Freq int `json:"freq"`
	}
	if err := decodeJSON(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	samples, err := r.svc.GenerateSamples(req.Context(), mux.Vars(req)["id"], body.Qty, body.Freq)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, samples)
}

func (r *Router) recordMeasurement(w http.ResponseWriter, req *http.Request) {
	var in qc.RecordInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	res, err := r.svc.RecordMeasurement(req.Context(), mux.Vars(req)["id"], in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) deleteMeasurement(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	if err := r.svc.DeleteMeasurement(req.Context(), vars["id"], vars["mid"]); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) completeWorkOrder(w http.ResponseWriter, req *http.Request) {
	wo, err := r.svc.CompleteWorkOrder(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wo)
}

// exportFunc renders one download into w and returns its file name.
type exportFunc func(ctx context.Context, id string, w io.Writer) (string, error)

// sendExport renders into memory first so failures still produce a JSON error.
func sendExport(w http.ResponseWriter, req *http.Request, contentType string, render exportFunc) {
	var buf bytes.Buffer
	name, err := render(req.Context(), mux.Vars(req)["id"], &buf)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendFile(w, contentType, name, buf.Bytes())
}

func sendFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (r *Router) exportCSV(w http.ResponseWriter, req *http.Request) {
	sendExport(w, req, contentTypeCSV, r.svc.ExportCSV)
}

func (r *Router) exportXLSX(w http.ResponseWriter, req *http.Request) {
	sendExport(w, req, contentTypeXLSX, r.svc.ExportXLSX)
}

func (r *Router) exportPDF(w http.ResponseWriter, req *http.Request) {
	sendExport(w, req, contentTypePDF, func(ctx context.Context, id string, out io.Writer) (string, error) {
		return r.svc.ExportPDF(ctx, id, r.cfg.Server.AppBaseURL, out)
	})
}

func (r *Router) sampleLabels(w http.ResponseWriter, req *http.Request) {
	name, data, err := r.svc.SampleLabels(req.Context(), mux.Vars(req)["id"], r.cfg.Server.AppBaseURL)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendFile(w, contentTypePDF, name, data)
}
