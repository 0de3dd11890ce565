package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/middleware"
	"github.com/BulizzesRG/myownpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

func init() {
	// Report fields by their JSON names so 422 bodies match the request.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

var tagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.Fail("Malformed JSON body"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondError(c, err)
			return false
		}
		fields := make(map[string][]string)
		for _, fe := range verrs {
			msg, ok := tagMessages[fe.Tag()]
			if !ok {
				msg = "is invalid"
			}
			fields[fe.Field()] = append(fields[fe.Field()], msg)
		}
		c.JSON(http.StatusUnprocessableEntity, dto.Fail(fields))
		return false
	}
	return true
}

// bindPayload decodes the body into a raw JSON object, keeping numbers as
// json.Number so prices are never rounded through float64. An empty body is
// an empty payload; rule tables report the missing fields.
func bindPayload(c *gin.Context) (dto.Payload, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Unreadable request body"))
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return dto.Payload{}, true
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var in dto.Payload
	if err := dec.Decode(&in); err != nil || in == nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Malformed JSON body"))
		return nil, false
	}
	return in, true
}

// respondError writes the fail envelope for err. Unexpected errors are logged
// with the request id and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	status, data := apierror.Render(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Err(err).
			Msg("request failed")
	}
	c.JSON(status, dto.Fail(data))
}

// parseID reads the :id path parameter. Ids that cannot exist are answered
// as not found.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apierror.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: claims.UserID, Email: claims.Email}
}

// queryInt returns the first of keys present in the query string as an int,
// or 0.
func queryInt(c *gin.Context, keys ...string) int {
	for _, k := range keys {
		if v, ok := c.GetQuery(k); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}

func queryString(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v, ok := c.GetQuery(k); ok {
			return v
		}
	}
	return ""
}
