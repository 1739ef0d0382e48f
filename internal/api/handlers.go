package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GET /admin/:model
func ListHandler(reg *Registry, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := reg.Lookup(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}

		lp := parseListParams(c.Request.URL.Query())
		recs, total, err := store.List(c.Request.Context(), e, lp)
		if errors.Is(err, ErrBadQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			status, msg := statusForDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		out := make([]map[string]any, 0, len(recs))
		for _, rec := range recs {
			rec["_str"] = recordStr(e, rec)
			out = append(out, rec)
		}
		c.Header("X-Total-Count", strconv.Itoa(total))
		c.JSON(http.StatusOK, out)
	}
}

// GET /admin/:model/:pk
func GetOneHandler(reg *Registry, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := reg.Lookup(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}

		rec, err := store.Get(c.Request.Context(), e, c.Param("pk"))
		if errors.Is(err, ErrBadQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		if err != nil {
			status, msg := statusForDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		rec["_str"] = recordStr(e, rec)
		c.JSON(http.StatusOK, rec)
	}
}

// POST /admin/:model
func CreateHandler(reg *Registry, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := reg.Lookup(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		if e.Options.ReadOnly {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Model is read-only"})
			return
		}

		var obj map[string]any
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		colVals, errs := ValidateWrite(e, obj, false, true)
		if len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
			return
		}

		rec, err := store.Insert(c.Request.Context(), e, colVals)
		if err != nil {
			status, msg := statusForDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		rec["_str"] = recordStr(e, rec)
		c.JSON(http.StatusCreated, rec)
	}
}

// PUT /admin/:model/:pk — полное обновление (обязательность проверяется)
// PATCH /admin/:model/:pk — частичное
func UpdateHandler(reg *Registry, store *Store, partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := reg.Lookup(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		if e.Options.ReadOnly {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Model is read-only"})
			return
		}

		var obj map[string]any
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		colVals, errs := ValidateWrite(e, obj, partial, false)
		if len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
			return
		}

		rec, err := store.Update(c.Request.Context(), e, c.Param("pk"), colVals)
		if errors.Is(err, ErrBadQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		if err != nil {
			status, msg := statusForDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		rec["_str"] = recordStr(e, rec)
		c.JSON(http.StatusOK, rec)
	}
}

// DELETE /admin/:model/:pk
func DeleteHandler(reg *Registry, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := reg.Lookup(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		if e.Options.ReadOnly {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Model is read-only"})
			return
		}

		n, err := store.Delete(c.Request.Context(), e, c.Param("pk"))
		if errors.Is(err, ErrBadQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		if err != nil {
			status, msg := statusForDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": n})
	}
}

// GET /admin/:model/count
func CountHandler(reg *Registry, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := reg.Lookup(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}

		lp := parseListParams(c.Request.URL.Query())
		total, err := store.Count(c.Request.Context(), e, lp)
		if errors.Is(err, ErrBadQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			status, msg := statusForDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": total})
	}
}
