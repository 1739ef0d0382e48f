package api

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"revizor/internal/admincfg"
	"revizor/internal/model"
	"revizor/internal/pg"
)

// ReloadConfig — откуда и что отражать при перечитывании схемы.
type ReloadConfig struct {
	Schema    string
	Tables    []string
	AdminFile string
	ReadOnly  bool // глобальный запрет записи для всех моделей
}

type reloadReq struct {
	Schema    string `json:"schema"`     // pg-схема (default — из конфига)
	AdminFile string `json:"admin_file"` // yaml с admin-переопределениями
}

// BuildRegistry отражает схему, синтезирует модели и наполняет реестр.
// Используется и на старте, и в _reload.
func BuildRegistry(ctx context.Context, db *sql.DB, cfg ReloadConfig, reg *Registry) (int, []model.Issue, error) {
	tables, err := pg.Reflect(ctx, db, cfg.Schema, cfg.Tables)
	if err != nil {
		return 0, nil, err
	}

	overrides, err := admincfg.Load(cfg.AdminFile)
	if err != nil {
		return 0, nil, err
	}

	optsByTable := make(map[string]model.Options, len(overrides))
	for table, mc := range overrides {
		optsByTable[table] = model.Options{
			Name:        mc.Name,
			NamePlural:  mc.NamePlural,
			StrTemplate: mc.StrTemplate,
			PKColumn:    mc.PKColumn,
		}
	}

	models, issues := model.Synthesize(tables, optsByTable)
	for _, it := range issues {
		log.Printf("reflect: %s.%s: %s (%s)", it.Table, it.Column, it.Message, it.Code)
	}

	reg.Replace(models, overrides, cfg.ReadOnly)
	return len(models), issues, nil
}

// POST /admin/_reload — перечитать схему и атомарно заменить модели.
func AdminReloadHandler(reg *Registry, db *sql.DB, base ReloadConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		// тело опционально
		_ = c.ShouldBindJSON(&req)

		cfg := base
		if s := strings.TrimSpace(req.Schema); s != "" {
			cfg.Schema = s
		}
		if f := strings.TrimSpace(req.AdminFile); f != "" {
			cfg.AdminFile = f
		}

		n, issues, err := BuildRegistry(c.Request.Context(), db, cfg, reg)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reflect failed", "details": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(issues))
		for _, it := range issues {
			out = append(out, gin.H{
				"table":   it.Table,
				"column":  it.Column,
				"message": it.Message,
				"code":    it.Code,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":     true,
			"schema": cfg.Schema,
			"models": n,
			"issues": out,
		})
	}
}
