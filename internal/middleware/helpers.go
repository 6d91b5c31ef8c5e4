// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetMerchantID gets the authenticated merchant ID from context
func GetMerchantID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("merchant_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// MustGetMerchantID gets the merchant ID from context or panics
func MustGetMerchantID(c *gin.Context) int64 {
	id, exists := GetMerchantID(c)
	if !exists {
		panic("merchant_id not found in context")
	}
	return id
}
