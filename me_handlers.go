package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RestoreReq struct {
	PublicID string `json:"publicId" binding:"required"`
}

// GET /api/v1/me/export-key
// The key lets another browser pick up this browser's review state.
func ExportKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		pubID := c.GetString(ctxPublicID)
		if pubID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"publicId": pubID})
	}
}

// POST /api/v1/me/restore
func RestoreAccount(db *gorm.DB, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RestoreReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "publicId required"})
			return
		}
		pubID := strings.TrimSpace(req.PublicID)
		if !validPublicID(pubID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed publicId"})
			return
		}
		var u User
		if err := db.First(&u, "public_id = ?", pubID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		setUserCookie(c, u.PublicID, secureCookies)
		c.JSON(http.StatusOK, gin.H{"status": "restored"})
	}
}
