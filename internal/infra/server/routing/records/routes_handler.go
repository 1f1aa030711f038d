package records

import (
	"net/http"

	"github.com/gin-gonic/gin"

	recordController "github.com/ghxstship/recordguard/internal/api/controllers/record"
	"github.com/ghxstship/recordguard/internal/api/models/record"
	"github.com/ghxstship/recordguard/internal/domain/metadata"
	"github.com/ghxstship/recordguard/internal/domain/org"
	domainRecord "github.com/ghxstship/recordguard/internal/domain/record"
	"github.com/ghxstship/recordguard/internal/infra/server/routing"
)

var subPath = "records"

var orgKey = "org_id"
var recordKey = "record_id"

// ClientVersionHeaderKey is the header clients use to hand back the version
// token they observed; leaving it out makes the write unconditional
var ClientVersionHeaderKey = "X-RECORDGUARD-CLIENT-VERSION"

type RoutesHandler struct {
	Controller recordController.Controller
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	subGroup := routerGroup.Group(subPath)
	subGroup.POST("", h.create)
	subGroup.GET("/:"+orgKey, h.list)
	subGroup.GET("/:"+orgKey+"/:"+recordKey, h.get)
	subGroup.PUT("/:"+orgKey+"/:"+recordKey, h.update)
	subGroup.DELETE("/:"+orgKey+"/:"+recordKey, h.delete)
}

// @Summary Add a new Record
// @ID create-record
// @Tags records
// @Description Creates a new Record
// @Accept  json
// @Produce  json
// @Param   newRecord body record.NewRecord true "The request body"
// @Success 201 {object} record.Record
// @Failure 400 {object} common.Body "Invalid JSON"
// @Router /records [post]
func (h *RoutesHandler) create(c *gin.Context) {
	var newRecord record.NewRecord
	if err := c.ShouldBindJSON(&newRecord); err != nil {
		routing.HandleJsonSerdesErr(c, err)
	} else {
		if r, err := h.Controller.Create(c.Request.Context(), &newRecord); err == nil {
			c.JSON(http.StatusCreated, r)
		} else {
			c.JSON(err.StatusCode, err.Body)
		}
	}
}

// @Summary List Records in an org
// @ID list-existing-records
// @Tags records
// @Description Lists persisted Records belonging to an org
// @Accept  json
// @Produce  json
// @Param   org_id path string true "The org the Records belong to"
// @Success 200 {array} record.Record
// @Router /records/{org_id} [get]
func (h *RoutesHandler) list(c *gin.Context) {
	h.withOrgId(c, func(orgId org.Id) {
		if r, err := h.Controller.List(c.Request.Context(), orgId); err == nil {
			c.JSON(http.StatusOK, r)
		} else {
			c.JSON(err.StatusCode, err.Body)
		}
	})
}

// @Summary Get a Record
// @ID get-existing-record
// @Tags records
// @Description Retrieves a persisted Record
// @Accept  json
// @Produce  json
// @Param   org_id path string true "The org the Record belongs to"
// @Param   record_id path string true "The id of the Record"
// @Success 200 {object} record.Record
// @Failure 404 {object} common.Body "Record does not exist"
// @Router /records/{org_id}/{record_id} [get]
func (h *RoutesHandler) get(c *gin.Context) {
	h.withOrgId(c, func(orgId org.Id) {
		recordId := domainRecord.Id(c.Param(recordKey))
		if r, err := h.Controller.Get(c.Request.Context(), orgId, recordId); err == nil {
			c.JSON(http.StatusOK, r)
		} else {
			c.JSON(err.StatusCode, err.Body)
		}
	})
}

// @Summary Update a Record
// @ID update-existing-record
// @Tags records
// @Description Patches a persisted Record. If the client version header is set, the patch is only applied if the Record's current version matches it; otherwise the patch is applied unconditionally.
// @Accept  json
// @Produce  json
// @Param   org_id path string true "The org the Record belongs to"
// @Param   record_id path string true "The id of the Record"
// @Param   recordUpdate body record.RecordUpdate true "The request body"
// @Param   X-RECORDGUARD-CLIENT-VERSION header string false "Version token last observed by the client"
// @Success 200 {object} record.Record
// @Failure 400 {object} common.Body "Invalid JSON or version token"
// @Failure 404 {object} common.Body "Record does not exist"
// @Failure 409 {object} common.Body "Record version conflict"
// @Router /records/{org_id}/{record_id} [put]
func (h *RoutesHandler) update(c *gin.Context) {
	h.withOrgId(c, func(orgId org.Id) {
		recordId := domainRecord.Id(c.Param(recordKey))
		h.withClientVersion(c, func(clientVersion *metadata.Version) {
			var recordUpdate record.RecordUpdate
			if err := c.ShouldBindJSON(&recordUpdate); err != nil {
				routing.HandleJsonSerdesErr(c, err)
			} else {
				if r, err := h.Controller.Update(c.Request.Context(), orgId, recordId, &recordUpdate, clientVersion); err == nil {
					c.JSON(http.StatusOK, r)
				} else {
					c.JSON(err.StatusCode, err.Body)
				}
			}
		})
	})
}

// @Summary Delete a Record
// @ID delete-existing-record
// @Tags records
// @Description Deletes a persisted Record, returning it as it was just before deletion. If the client version header is set, the delete is only applied if the Record's current version matches it.
// @Accept  json
// @Produce  json
// @Param   org_id path string true "The org the Record belongs to"
// @Param   record_id path string true "The id of the Record"
// @Param   X-RECORDGUARD-CLIENT-VERSION header string false "Version token last observed by the client"
// @Success 200 {object} record.Record
// @Failure 400 {object} common.Body "Invalid version token"
// @Failure 404 {object} common.Body "Record does not exist"
// @Failure 409 {object} common.Body "Record version conflict"
// @Router /records/{org_id}/{record_id} [delete]
func (h *RoutesHandler) delete(c *gin.Context) {
	h.withOrgId(c, func(orgId org.Id) {
		recordId := domainRecord.Id(c.Param(recordKey))
		h.withClientVersion(c, func(clientVersion *metadata.Version) {
			if r, err := h.Controller.Delete(c.Request.Context(), orgId, recordId, clientVersion); err == nil {
				c.JSON(http.StatusOK, r)
			} else {
				c.JSON(err.StatusCode, err.Body)
			}
		})
	})
}

func (h *RoutesHandler) withOrgId(c *gin.Context, doWithOrgId func(orgId org.Id)) {
	orgId, err := org.IdFromString(c.Param(orgKey))
	if err != nil {
		routing.HandleJsonSerdesErr(c, err)
	} else {
		doWithOrgId(*orgId)
	}
}

func (h *RoutesHandler) withClientVersion(c *gin.Context, doWithVersion func(clientVersion *metadata.Version)) {
	rawToken := c.GetHeader(ClientVersionHeaderKey)
	if rawToken == "" {
		doWithVersion(nil)
	} else {
		clientVersion, err := metadata.VersionFromToken(rawToken)
		if err != nil {
			routing.HandleJsonSerdesErr(c, err)
		} else {
			doWithVersion(clientVersion)
		}
	}
}
