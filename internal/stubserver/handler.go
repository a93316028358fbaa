package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	"github.com/allisson/tokenfield/internal/encryption"
	"github.com/allisson/tokenfield/internal/httputil"
	"github.com/allisson/tokenfield/internal/registry"
	appvalidation "github.com/allisson/tokenfield/internal/validation"
)

// Wire shapes mirror the encryption service API consumed by the HTTP client.
type encryptRequest struct {
	Items []encryption.BatchItem `json:"items"`
}

type encryptResponse struct {
	Tokens map[string]string `json:"tokens"`
}

type decryptRequest struct {
	Tokens []string `json:"tokens"`
}

type decryptResponse struct {
	Values map[string]string `json:"values"`
}

type searchRequest struct {
	Value string `json:"value"`
}

type searchResponse struct {
	Tokens []string `json:"tokens"`
}

type listTokensResponse struct {
	Tokens []TokenRecord `json:"tokens"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// validateItem checks one encrypt batch item, including the category
// vocabulary shared with the registry.
func validateItem(item encryption.BatchItem) error {
	if err := validation.ValidateStruct(&item,
		validation.Field(&item.Value, validation.Required),
		validation.Field(&item.EntityType, validation.Required, appvalidation.NotBlank),
		validation.Field(&item.EntityID, validation.Required, appvalidation.NotBlank),
		validation.Field(&item.FieldName, validation.Required, appvalidation.NotBlank),
	); err != nil {
		return appvalidation.WrapValidationError(err)
	}
	return registry.Category(item.Category).Validate()
}

// encryptHandler mints tokens for a batch of values.
func (s *Server) encryptHandler(c *gin.Context) {
	var req encryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, s.logger)
		return
	}

	for _, item := range req.Items {
		if err := validateItem(item); err != nil {
			httputil.HandleErrorGin(c, err, s.logger)
			return
		}
	}

	tokens := s.store.Encrypt(req.Items)
	c.JSON(http.StatusOK, encryptResponse{Tokens: tokens})
}

// decryptHandler resolves tokens to plaintext. Unknown tokens are omitted
// from the response rather than failing the batch.
func (s *Server) decryptHandler(c *gin.Context) {
	var req decryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, s.logger)
		return
	}

	values := s.store.Decrypt(req.Tokens)
	c.JSON(http.StatusOK, decryptResponse{Values: values})
}

// searchHandler returns every token minted for a plaintext value.
func (s *Server) searchHandler(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, s.logger)
		return
	}

	tokens := s.store.Search(req.Value)
	c.JSON(http.StatusOK, searchResponse{Tokens: tokens})
}

// listTokensHandler pages through minted tokens for inspection during
// development.
func (s *Server) listTokensHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, s.logger)
		return
	}

	tokens, total := s.store.List(offset, limit)
	c.JSON(http.StatusOK, listTokensResponse{
		Tokens: tokens,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness. The stub holds all state in memory, so
// readiness follows liveness.
func (s *Server) readinessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
