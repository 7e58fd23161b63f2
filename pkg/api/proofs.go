package api

import (
	"net/http"

	"github.com/HamiGames/Lucid-sub007/pkg/api/dto"
	"github.com/HamiGames/Lucid-sub007/pkg/auth"
	"github.com/HamiGames/Lucid-sub007/pkg/consensus"
	"github.com/gin-gonic/gin"
)

// postProof accepts a submitted work proof. The proof is validated and, when
// acceptable, persisted; the response states whether it was accepted.
func postProof(engine *consensus.Engine, auth auth.Authenticator) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("proof"), func(c *gin.Context) {
			username, password, ok := c.Request.BasicAuth()
			if !ok || !auth.CheckAuthentication(username, password) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					errorPayload("you aren't authorized to call this method"))
				return
			}
			reader := c.Request.Body
			defer reader.Close()
			parsed, err := dto.ParseWorkProof(reader)
			if err != nil {
				if err == dto.ParsingError {
					c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				} else {
					c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				}
				return
			}
			proof, err := parsed.ToPlain()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			accepted, err := engine.SubmitProof(c, proof)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			c.JSON(200, okPayload(gin.H{"accepted": accepted}))
		})
	}
}
