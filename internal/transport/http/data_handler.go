package http

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/render"

	apierrors "usagecli/internal/errors"
	"usagecli/pkg/contracts/domain"
)

// DataHandler serves the consolidated dataset read-only.
type DataHandler struct {
	service DataService
	logger  *slog.Logger
}

// NewDataHandler creates a new data handler.
func NewDataHandler(service DataService, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "data")),
	}
}

// consolidatedResponse is the JSON shape of the consolidated dataset.
type consolidatedResponse struct {
	Artifact string     `json:"artifact"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	Users    int        `json:"users"`
	DateFrom string     `json:"date_from"`
	DateTo   string     `json:"date_to"`
}

// Consolidated handles GET /api/data/consolidated
func (h *DataHandler) Consolidated(w http.ResponseWriter, r *http.Request) {
	dataset, artifact, err := h.service.LatestConsolidated(r.Context())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrNoData))
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to load consolidated dataset",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
		return
	}

	render.JSON(w, r, toConsolidatedResponse(dataset, artifact))
}

func toConsolidatedResponse(dataset *domain.ConsolidatedDataset, artifact string) consolidatedResponse {
	rows := make([][]string, len(dataset.Records))
	for i := range dataset.Records {
		rows[i] = dataset.Row(i)
	}
	from, to := dataset.DateRange()
	return consolidatedResponse{
		Artifact: artifact,
		Columns:  dataset.Columns,
		Rows:     rows,
		Users:    dataset.UniqueUsers(),
		DateFrom: from,
		DateTo:   to,
	}
}
