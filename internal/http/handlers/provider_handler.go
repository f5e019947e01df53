package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// UpsertProfile godoc
// @ID          upsertProfile
// @Summary     Create or update own provider profile
// @Description Supplied fields replace stored ones; omitted fields are kept. Skills are replaced as a whole.
// @Tags        Providers
// @Accept      json
// @Produce     json
// @Param       X-User-ID    header  string  true  "Caller id"    example(prov-1)
// @Param       X-User-Role  header  string  true  "Caller role"  example(provider)
// @Param       body         body    domain.ProfilePatch  true  "Profile fields"
// @Success     200  {object}  domain.ProviderProfile
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a provider"
// @Router      /providers/me [put]
func (h *Handlers) UpsertProfile(c *gin.Context) {
	var patch domain.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.profiles.Upsert(c.Request.Context(), caller(c), patch)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get own provider profile
// @Tags        Providers
// @Produce     json
// @Success     200  {object}  domain.ProviderProfile
// @Failure     404  {object}  handlers.ErrorResponse  "No profile yet"
// @Router      /providers/me [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), caller(c).UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
