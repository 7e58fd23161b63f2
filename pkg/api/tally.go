package api

import (
	"net/http"
	"strconv"

	"github.com/HamiGames/Lucid-sub007/pkg/consensus"
	"github.com/gin-gonic/gin"
)

// getTallies returns the ranked credit tallies of an epoch.
func getTallies(engine *consensus.Engine) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.GET(getPath("tally/:epoch"), func(c *gin.Context) {
			epoch, err := strconv.ParseUint(c.Param("epoch"), 10, 64)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload("epoch couldn't be parsed"))
				return
			}
			tallies, err := engine.GetTallies(c, epoch)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			c.JSON(200, okPayload(tallies))
		})
	}
}
