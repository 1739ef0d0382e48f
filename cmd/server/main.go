package main

import (
	"context"
	"fmt"
	"log"

	"revizor/internal/api"
	"revizor/internal/config"
	"revizor/internal/pg"
)

func main() {
	cfg := config.LoadWithPath("config.json")
	if cfg.DBURL == "" {
		log.Fatal("Postgres URL не задан (-db / REVIZOR_DB_URL)")
	}

	ctx := context.Background()

	// 1. Подключаемся к БД (таблицами не управляем — только читаем каталог)
	db, err := pg.Open(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("Ошибка подключения к Postgres: %v", err)
	}

	// 2. Отражаем схему и синтезируем модели
	reload := api.ReloadConfig{
		Schema:    cfg.Schema,
		Tables:    cfg.Tables,
		AdminFile: cfg.AdminFile,
		ReadOnly:  cfg.ReadOnly,
	}
	reg := api.NewRegistry()
	n, _, err := api.BuildRegistry(ctx, db, reload, reg)
	if err != nil {
		log.Fatalf("Ошибка отражения схемы: %v", err)
	}
	fmt.Printf("Отражено моделей: %d (схема %s)\n", n, cfg.Schema)

	// 3. Запускаем admin REST API
	store := api.NewStore(db)
	fmt.Printf("Стартуем сервер Revizor на :%s...\n", cfg.Port)
	if err := api.RunServer(":"+cfg.Port, reg, store, db, reload); err != nil {
		log.Fatalf("Сервер остановился: %v", err)
	}
}
