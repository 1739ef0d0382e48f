// api/router.go
package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"
)

// NewRouter собирает маршруты admin-поверхности.
// Никаких собственных маршрутов данных: только generic CRUD по моделям.
func NewRouter(reg *Registry, store *Store, db *sql.DB, reload ReloadConfig) *gin.Engine {
	r := gin.Default()

	r.GET("/admin/meta", MetaListHandler(reg))
	r.GET("/admin/meta/:model", MetaModelHandler(reg))

	adminGroup := r.Group("/admin")
	{
		// служебные маршруты — СНАЧАЛА
		adminGroup.POST("/_reload", AdminReloadHandler(reg, db, reload))
		adminGroup.GET("/:model/count", CountHandler(reg, store))
		adminGroup.GET("/:model/_count", CountHandler(reg, store)) // алиас

		// обычные CRUD
		adminGroup.GET("/:model", ListHandler(reg, store))
		adminGroup.POST("/:model", CreateHandler(reg, store))
		adminGroup.GET("/:model/:pk", GetOneHandler(reg, store))
		adminGroup.PUT("/:model/:pk", UpdateHandler(reg, store, false))
		adminGroup.PATCH("/:model/:pk", UpdateHandler(reg, store, true))
		adminGroup.DELETE("/:model/:pk", DeleteHandler(reg, store))
	}

	return r
}

// RunServer — запуск HTTP-сервера на addr.
func RunServer(addr string, reg *Registry, store *Store, db *sql.DB, reload ReloadConfig) error {
	return NewRouter(reg, store, db, reload).Run(addr)
}
