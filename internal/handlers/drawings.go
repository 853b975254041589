package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/cotaqc/internal/services/qc"
)

func (r *Router) listDrawings(w http.ResponseWriter, req *http.Request) {
	archived, _ := strconv.ParseBool(req.URL.Query().Get("archived"))
	drawings, err := r.svc.ListDrawings(req.Context(), archived)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, drawings)
}

// createDrawing accepts multipart form fields code, name, description and
// the image file under "image".
func (r *Router) createDrawing(w http.ResponseWriter, req *http.Request) {
	limit := r.cfg.Storage.MaxUploadBytes
	req.Body = http.MaxBytesReader(w, req.Body, limit+(1<<20))
	if err := req.ParseMultipartForm(limit); err != nil {
		respondError(w, http.StatusBadRequest, "formulario_invalido")
		return
	}
	file, _, err := req.FormFile("image")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "image: obrigatório", "field": "image"})
		return
	}
	defer file.Close()
	image, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "falha_ao_ler_imagem")
		return
	}
	if int64(len(image)) > limit {
		respondError(w, http.StatusRequestEntityTooLarge, "imagem_muito_grande")
		return
	}

	d, err := r.svc.CreateDrawing(req.Context(), qc.CreateDrawingInput{
		Code:        req.FormValue("code"),
		Name:        req.FormValue("name"),
		Description: req.FormValue("description"),
		Image:       image,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (r *Router) getDrawing(w http.ResponseWriter, req *http.Request) {
	d, err := r.svc.GetDrawing(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (r *Router) archiveDrawing(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Archived bool `json:"archived"`
	}
	if err := decodeJSON(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	d, err := r.svc.SetDrawingArchived(req.Context(), mux.Vars(req)["id"], body.Archived)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (r *Router) drawingReferences(w http.ResponseWriter, req *http.Request) {
	n, err := r.svc.DrawingReferences(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// deleteDrawing requires ?confirm=true when work orders still point at it.
func (r *Router) deleteDrawing(w http.ResponseWriter, req *http.Request) {
	confirm, _ := strconv.ParseBool(req.URL.Query().Get("confirm"))
	res, err := r.svc.DeleteDrawing(req.Context(), mux.Vars(req)["id"], confirm)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) createDimension(w http.ResponseWriter, req *http.Request) {
	var in qc.DimensionInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	d, err := r.svc.CreateDimension(req.Context(), mux.Vars(req)["id"], in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (r *Router) updateDimension(w http.ResponseWriter, req *http.Request) {
	var in qc.DimensionInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	d, err := r.svc.UpdateDimension(req.Context(), mux.Vars(req)["id"], in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (r *Router) moveDimension(w http.ResponseWriter, req *http.Request) {
	var body struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeJSON(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	d, err := r.svc.MoveDimension(req.Context(), mux.Vars(req)["id"], body.X, body.Y)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (r *Router) deleteDimension(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DeleteDimension(req.Context(), mux.Vars(req)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
