package handlers

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"catsgallery/catapi"
	"catsgallery/gallery"
)

// Fetch failures never reach the page; the registry logs them and the
// previous state is rendered.
func (h *Handler) getPage(ctx *fiber.Ctx) error {
	_, view := h.openView(ctx)
	_ = view.Mount(ctx.UserContext())

	var buf bytes.Buffer
	if err := view.Render(&buf, "/refresh"); err != nil {
		return err
	}
	ctx.Type("html", "utf-8")
	return ctx.Send(buf.Bytes())
}

func (h *Handler) refreshPage(ctx *fiber.Ctx) error {
	_, view := h.openView(ctx)
	_ = view.Refresh(ctx.UserContext())
	return ctx.Redirect("/", fiber.StatusSeeOther)
}

func (h *Handler) getCats(ctx *fiber.Ctx) error {
	id, view := h.openView(ctx)
	_ = view.Mount(ctx.UserContext())
	return sendCommonResponse(ctx, fiber.StatusOK, "OK", catsData(id, view))
}

func (h *Handler) refreshCats(ctx *fiber.Ctx) error {
	id, view := h.openView(ctx)
	if err := view.Refresh(ctx.UserContext()); err != nil {
		data := catsData(id, view)
		data["status_code"] = catapi.StatusCode(err)
		return sendCommonResponse(ctx, fiber.StatusBadGateway, "Fetching cats failed: "+err.Error(), data)
	}
	return sendCommonResponse(ctx, fiber.StatusOK, "OK", catsData(id, view))
}

// endSession unmounts the caller's view and expires the session cookie. The
// next page load mounts a fresh view.
func (h *Handler) endSession(ctx *fiber.Ctx) error {
	id := ctx.Cookies(sessionCookie)
	unmounted := id != "" && h.registry.Unmount(id)
	ctx.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return sendCommonResponse(ctx, fiber.StatusOK, "OK", map[string]interface{}{
		"unmounted": unmounted,
	})
}

func catsData(sessionID string, view *gallery.View) map[string]interface{} {
	cats := view.Cats()
	return map[string]interface{}{
		"session":    sessionID,
		"generation": view.Generation(),
		"cats":       cats,
		"total":      len(cats),
	}
}
