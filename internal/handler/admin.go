package handler

import (
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/service"
)

// AdminHandler handles catalog inspection commands for administrators.
type AdminHandler struct {
	games *service.GameService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(games *service.GameService) *AdminHandler {
	return &AdminHandler{games: games}
}

// HandleCaseInfo handles the /case_info <id> command.
func (h *AdminHandler) HandleCaseInfo(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Reply("❌ Usage: /case_info <case id>\nExample: /case_info card-001")
	}
	id := strings.TrimSpace(args[0])

	cs, ok := h.games.Catalog().Get(id)
	if !ok {
		return c.Reply("❌ Case not found: " + id)
	}

	log.Info().
		Int64("admin_id", c.Sender().ID).
		Str("case_id", id).
		Str("operation", "case_info").
		Msg("Admin operation executed")

	return c.Reply(FormatCaseInfo(cs))
}

// HandleCatalogCheck handles the /catalog_check command.
func (h *AdminHandler) HandleCatalogCheck(c tele.Context) error {
	cases := h.games.Catalog().AllCases()
	issues := catalog.Validate(cases)

	log.Info().
		Int64("admin_id", c.Sender().ID).
		Int("cases", len(cases)).
		Int("issues", len(issues)).
		Str("operation", "catalog_check").
		Msg("Admin operation executed")

	return c.Reply(FormatIssues(len(cases), issues))
}
