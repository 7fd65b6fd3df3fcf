package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/BhavyaSri138/SE-ProfAid/internal/config"
	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
	"github.com/BhavyaSri138/SE-ProfAid/internal/services"
	"github.com/BhavyaSri138/SE-ProfAid/internal/storage"
)

type API struct {
	cfg     config.Config
	files   *storage.FileManager
	doubts  *services.DoubtService
	catalog *services.SubjectCatalog
	tokens  *services.TokenService
}

func NewAPI(cfg config.Config, fm *storage.FileManager, doubts *services.DoubtService, catalog *services.SubjectCatalog, tokens *services.TokenService) *API {
	return &API{cfg: cfg, files: fm, doubts: doubts, catalog: catalog, tokens: tokens}
}

func registerRoutes(e *echo.Echo, api *API) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", api.handleHealth)
	apiGroup.GET("/subjects", api.handleListSubjects)

	authed := apiGroup.Group("", RequireAuth(api.tokens))

	authed.POST("/doubts", api.handleAskDoubt)
	authed.GET("/doubts/:id", api.handleGetDoubt)
	authed.GET("/doubts/student/:studentID", api.handleListStudentDoubts)
	authed.GET("/doubts/branch/:branch/:studentID", api.handleListBranchArchive)
	authed.GET("/doubts/unclarified", api.handleListUnclarified)
	authed.PATCH("/doubts/reply/:id", api.handleReply)
	authed.PATCH("/doubts/extend/:id", api.handleExtend)
	authed.PATCH("/doubts/clarify/:id", api.handleClarify)

	authed.GET("/professors/:id", api.handleProfessorProfile)

	e.GET("/uploads/:ref", api.handleServeUpload)
}

func (a *API) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (a *API) handleListSubjects(c echo.Context) error {
	branch := strings.TrimSpace(c.QueryParam("branch"))
	if branch == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "branch query parameter required")
	}

	return c.JSON(http.StatusOK, a.catalog.Subjects(branch))
}

func (a *API) handleAskDoubt(c echo.Context) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	refs, err := a.saveFormFiles(c, "files")
	if err != nil {
		return domainError(err)
	}

	doubt, err := a.doubts.Ask(actor, services.AskInput{
		DoubtID:     strings.TrimSpace(c.FormValue("DoubtID")),
		Subject:     strings.TrimSpace(c.FormValue("Subject")),
		Title:       strings.TrimSpace(c.FormValue("Title")),
		Description: strings.TrimSpace(c.FormValue("Description")),
		Files:       refs,
	})
	if err != nil {
		a.files.Discard(refs)
		return domainError(err)
	}

	log.Info().Str("doubt", doubt.ID).Str("student", actor.ID).Msg("doubt created")
	return c.JSON(http.StatusCreated, doubt)
}

func (a *API) handleGetDoubt(c echo.Context) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	doubt, err := a.doubts.Get(actor, c.Param("id"))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, doubt)
}

func (a *API) handleListStudentDoubts(c echo.Context) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	if c.Param("studentID") != actor.ID {
		return echo.NewHTTPError(http.StatusForbidden, "doubts are only listable by their owner")
	}

	doubts, err := a.doubts.ListMine(actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, doubts)
}

func (a *API) handleListBranchArchive(c echo.Context) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	if c.Param("studentID") != actor.ID {
		return echo.NewHTTPError(http.StatusForbidden, "archive is only listable as yourself")
	}

	doubts, err := a.doubts.ListClarifiedInBranch(actor, c.Param("branch"))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, doubts)
}

func (a *API) handleListUnclarified(c echo.Context) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	var subjects []string
	if raw := strings.TrimSpace(c.QueryParam("subjects")); raw != "" {
		for _, subject := range strings.Split(raw, ",") {
			if subject = strings.TrimSpace(subject); subject != "" {
				subjects = append(subjects, subject)
			}
		}
	}

	doubts, err := a.doubts.ListUnclarifiedForSubjects(actor, subjects)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, doubts)
}

func (a *API) handleReply(c echo.Context) error {
	return a.handleAppend(c, a.doubts.Reply)
}

func (a *API) handleExtend(c echo.Context) error {
	return a.handleAppend(c, a.doubts.Extend)
}

func (a *API) handleAppend(c echo.Context, appendEntry func(domain.Actor, string, string, []string) (domain.Doubt, error)) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	refs, err := a.saveFormFiles(c, "Files")
	if err != nil {
		return domainError(err)
	}

	// The form also carries SenderID; it is deliberately ignored. The
	// thread entry's sender is always the authenticated actor.
	doubt, err := appendEntry(actor, c.Param("id"), strings.TrimSpace(c.FormValue("Message")), refs)
	if err != nil {
		a.files.Discard(refs)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, doubt)
}

func (a *API) handleClarify(c echo.Context) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	doubt, err := a.doubts.MarkClarified(actor, c.Param("id"))
	if err != nil {
		return domainError(err)
	}

	log.Info().Str("doubt", doubt.ID).Str("student", actor.ID).Msg("doubt clarified")
	return c.JSON(http.StatusOK, doubt)
}

func (a *API) handleProfessorProfile(c echo.Context) error {
	actor, ok := CurrentActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no actor on request")
	}

	if actor.Role != domain.RoleProfessor || c.Param("id") != actor.ID {
		return echo.NewHTTPError(http.StatusForbidden, "profiles are only readable by their owner")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ProfessorID": actor.ID,
		"Branch":      actor.Branch,
		"Subjects":    actor.Subjects,
	})
}

func (a *API) handleServeUpload(c echo.Context) error {
	path, err := a.files.Resolve(c.Param("ref"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "attachment not found")
	}

	return c.File(path)
}

// saveFormFiles stores every upload under the given multipart field.
// The lowercase variant is accepted too; the original client is not
// consistent between its ask and reply forms.
func (a *API) saveFormFiles(c echo.Context, field string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Non-multipart requests simply carry no files.
		return nil, nil
	}

	headers := form.File[field]
	if len(headers) == 0 {
		headers = form.File[strings.ToLower(field)]
	}
	if len(headers) == 0 {
		return nil, nil
	}

	return a.files.SaveAll(headers)
}

func domainError(err error) error {
	switch {
	case domain.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case domain.IsTransport(err):
		log.Error().Err(err).Msg("storage failure")
		return echo.NewHTTPError(http.StatusBadGateway, "storage unavailable")
	default:
		log.Error().Err(err).Msg("unexpected failure")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
