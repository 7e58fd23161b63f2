package api

import (
	"net/http"
	"strconv"

	"github.com/HamiGames/Lucid-sub007/pkg/api/dto"
	"github.com/HamiGames/Lucid-sub007/pkg/auth"
	"github.com/HamiGames/Lucid-sub007/pkg/consensus"
	"github.com/HamiGames/Lucid-sub007/pkg/db"
	"github.com/gin-gonic/gin"
)

// parseSlotParam parses the slot path parameter of the given request.
func parseSlotParam(c *gin.Context) (uint64, bool) {
	slot, err := strconv.ParseUint(c.Param("slot"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload("slot couldn't be parsed"))
		return 0, false
	}
	return slot, true
}

// getSchedule returns the leader schedule of a slot.
func getSchedule(engine *consensus.Engine) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.GET(getPath("schedule/:slot"), func(c *gin.Context) {
			slot, ok := parseSlotParam(c)
			if !ok {
				return
			}
			schedule, err := engine.GetSchedule(c, slot)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			if schedule == nil {
				c.AbortWithStatusJSON(http.StatusNotFound,
					errorPayload("no schedule for this slot could be found"))
				return
			}
			c.JSON(200, okPayload(schedule))
		})
	}
}

// postOutcome records the observed block-production outcome of a slot.
func postOutcome(engine *consensus.Engine, auth auth.Authenticator) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("schedule/:slot/outcome"), func(c *gin.Context) {
			username, password, ok := c.Request.BasicAuth()
			if !ok || !auth.CheckAuthentication(username, password) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					errorPayload("you aren't authorized to call this method"))
				return
			}
			slot, ok := parseSlotParam(c)
			if !ok {
				return
			}
			reader := c.Request.Body
			defer reader.Close()
			outcome, err := dto.ParseOutcome(reader)
			if err != nil {
				if err == dto.ParsingError {
					c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				} else {
					c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				}
				return
			}
			status, err := outcome.ToPlain()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			err = engine.RecordOutcome(c, slot, outcome.Winner, status)
			if err != nil {
				switch err {
				case db.NotFoundError:
					c.AbortWithStatusJSON(http.StatusNotFound, errorPayload(err.Error()))
				case db.ConflictError:
					c.AbortWithStatusJSON(http.StatusConflict, errorPayload(err.Error()))
				default:
					c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				}
				return
			}
			c.JSON(200, okPayload(nil))
		})
	}
}
