package handlers

import (
	"net/http"

	"banking_portal/internal/money"

	"github.com/gin-gonic/gin"
)

// render pops pending flashes into the page, persists the session when it
// matters and writes the template.
func (h *Handler) render(c *gin.Context, status int, name string, data pageData) {
	st := h.session(c)
	data.Flashes = append(st.PopFlashes(), data.Flashes...)
	data.Username = st.Username
	data.Currency = h.opts.Currency
	if data.Balance == "" && st.Authenticated() {
		data.Balance = money.Format(st.CachedBalance)
	}

	loaded, _ := c.Get(ctxSessionLoaded)
	if st.Authenticated() || loaded == true {
		h.saveSession(c, st)
	}
	c.HTML(status, name, data)
}

// redirect persists the session (it usually carries a flash) and sends a
// 303 so browsers follow with GET.
func (h *Handler) redirect(c *gin.Context, location string) {
	h.saveSession(c, h.session(c))
	c.Redirect(http.StatusSeeOther, location)
}

// renderError logs err and shows the generic error page.
func (h *Handler) renderError(c *gin.Context, event string, err error) {
	if h.log != nil {
		h.log.Errorw(event, "path", c.FullPath(), "err", err)
	}
	h.render(c, http.StatusInternalServerError, "error.html", pageData{Title: "Error"})
}
