package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	interviewHandler "github.com/calebhsu/prescreen/backend/internal/handler/interview"
	speechHandler "github.com/calebhsu/prescreen/backend/internal/handler/speech"
	middlewarePkg "github.com/calebhsu/prescreen/backend/internal/middleware"
	interviewService "github.com/calebhsu/prescreen/backend/internal/service/interview"
	speechService "github.com/calebhsu/prescreen/backend/internal/service/speech"
	"github.com/calebhsu/prescreen/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(interviewSvc *interviewService.Service, speechSvc *speechService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "Pre-screening voice assistant backend",
		})
	})

	// The interview handler takes the speech service as a nil-able
	// interface; a typed nil would defeat the nil checks inside.
	var transcriber interviewHandler.SpeechService
	if speechSvc != nil {
		transcriber = speechSvc
	}

	r.Route("/api", func(api chi.Router) {
		interviewHandler.New(interviewSvc, transcriber).RegisterRoutes(api)

		if speechSvc != nil {
			speechHandler.New(speechSvc).RegisterRoutes(api)
		}
	})

	return r
}
