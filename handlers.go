package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"oracle/models"
	"oracle/pkg/analysis"
	"oracle/pkg/database"
	"oracle/pkg/forecast"
	"oracle/pkg/sales"
	"oracle/pkg/store"

	"github.com/gin-gonic/gin"
)

func setupRoutes(r *gin.Engine, s *server) {
	r.GET("/healthz", s.healthHandler)
	r.POST("/register", s.registerHandler)
	r.POST("/token", s.tokenHandler)
	r.GET("/login/google", s.googleLoginHandler)
	r.GET("/auth/callback/google", s.googleCallbackHandler)

	authGroup := r.Group("")
	authGroup.Use(s.jwtAuthMiddleware())
	authGroup.GET("/me", s.meHandler)
	authGroup.POST("/upload-csv/", s.uploadCSVHandler)
	authGroup.GET("/datasets/", s.listDatasetsHandler)
	authGroup.GET("/analysis/", s.analysisHandler)
	authGroup.GET("/forecast/:product_id", s.forecastHandler)
	authGroup.GET("/export/forecast/", s.exportForecastHandler)
}

type userResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func (s *server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) registerHandler(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.auth.RegisterUser(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusOK, toUserResponse(&user))
}

// tokenHandler is the password grant: form fields username (the email) and password.
func (s *server) tokenHandler(c *gin.Context) {
	user, err := s.auth.Authenticate(c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	token, err := s.auth.IssueToken(user.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *server) meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(currentUser(c)))
}

func (s *server) uploadCSVHandler(c *gin.Context) {
	user := currentUser(c)
	if s.cfg.MaxUploadBytes > 0 {
		if c.Request.ContentLength > s.cfg.MaxUploadBytes {
			abortDetail(c, http.StatusRequestEntityTooLarge, "File too large.")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortDetail(c, http.StatusRequestEntityTooLarge, "File too large.")
			return
		}
		abortDetail(c, http.StatusBadRequest, "No file uploaded.")
		return
	}
	if err := sales.CheckFilename(fh.Filename); err != nil {
		s.respondError(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		s.respondError(c, err)
		return
	}

	key := store.Key(user.ID, fh.Filename)
	products, ds, err := sales.Ingest(c.Request.Context(), s.store, key, data)
	if err != nil {
		s.log.Warn("upload rejected", "user_id", user.ID, "file", fh.Filename, "error", err)
		if errors.Is(err, sales.ErrValidation) {
			// the rejected content replaced any earlier file of this name
			if derr := database.DeleteDataset(s.db, user.ID, fh.Filename); derr != nil {
				s.log.Error("dataset index cleanup failed", "user_id", user.ID, "file", fh.Filename, "error", derr)
			}
		}
		s.respondError(c, err)
		return
	}
	entry := models.Dataset{
		UserID:       user.ID,
		FileName:     fh.Filename,
		StoreKey:     key,
		RowCount:     len(ds.Records),
		ProductCount: len(products),
		SizeBytes:    int64(len(data)),
	}
	if err := database.UpsertDataset(s.db, &entry); err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info("csv uploaded", "user_id", user.ID, "file", fh.Filename, "rows", len(ds.Records), "products", len(products))
	c.JSON(http.StatusOK, gin.H{
		"message":  "CSV validated and saved successfully!",
		"filename": fh.Filename,
		"products": products,
	})
}

func (s *server) listDatasetsHandler(c *gin.Context) {
	user := currentUser(c)
	var list []models.Dataset
	if err := s.db.Where("user_id = ?", user.ID).Order("updated_at desc").Find(&list).Error; err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, d := range list {
		out = append(out, gin.H{
			"filename":      d.FileName,
			"rows":          d.RowCount,
			"product_count": d.ProductCount,
			"size_bytes":    d.SizeBytes,
			"uploaded_at":   d.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// loadDataset reads the caller's stored file named by the filename query parameter.
// It writes the error response itself and returns nil on failure.
func (s *server) loadDataset(c *gin.Context) *sales.Dataset {
	filename := c.Query("filename")
	if strings.TrimSpace(filename) == "" {
		abortDetail(c, http.StatusBadRequest, "Query parameter 'filename' is required.")
		return nil
	}
	ds, err := sales.Load(c.Request.Context(), s.store, store.Key(currentUser(c).ID, filename))
	if err != nil {
		s.respondError(c, err)
		return nil
	}
	return ds
}

func (s *server) analysisHandler(c *gin.Context) {
	ds := s.loadDataset(c)
	if ds == nil {
		return
	}
	c.JSON(http.StatusOK, analysis.Analyze(ds))
}

func (s *server) forecastHandler(c *gin.Context) {
	ds := s.loadDataset(c)
	if ds == nil {
		return
	}
	result, err := s.pipeline.Run(c.Request.Context(), ds, c.Param("product_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) exportForecastHandler(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		abortDetail(c, http.StatusBadRequest, "Query parameter 'product_id' is required.")
		return
	}
	ds := s.loadDataset(c)
	if ds == nil {
		return
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType = "text/csv"
		ext         = "csv"
	)
	if strings.EqualFold(c.Query("format"), "xlsx") {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
		err = s.pipeline.ExportXLSX(c.Request.Context(), ds, productID, &buf)
	} else {
		err = s.pipeline.Export(c.Request.Context(), ds, productID, &buf)
	}
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			abortDetail(c, http.StatusBadRequest, "Not enough data to export.")
			return
		}
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=forecast_"+productID+"."+ext)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
