// Package config читает настройки сервиса из окружения (Heroku-style).
// Секреты живут только в env и в БД, на диске конфигов нет.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/EgorLis/Shieldbot/internal/store"
)

type Config struct {
	// BOT_TOKEN — токен админ-бота (нужен только роли std).
	BotToken string
	// MONGO_URI — мост между воркерами, обязателен обеим ролям.
	MongoURI string
	MongoDB  string
	// OWNER_ID — единственный пользователь, которому подчиняется std-бот.
	OwnerID int64
	// OPS_ADDR — адрес ops-сервера (задекларированный в Dockerfile порт 8080).
	OpsAddr string
}

func Configure() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"mongo_db": store.DefaultDatabase,
		"ops_addr": ":8080",
	}, "."), nil); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken: k.String("bot_token"),
		MongoURI: k.String("mongo_uri"),
		MongoDB:  k.String("mongo_db"),
		OwnerID:  k.Int64("owner_id"),
		OpsAddr:  k.String("ops_addr"),
	}
	// Heroku выдаёт порт сам — он главнее дефолта
	if p := k.String("port"); p != "" {
		cfg.OpsAddr = ":" + p
	}
	return cfg, nil
}

// Validate проверяет обязательные ключи для конкретной роли.
func (c *Config) Validate(role string) error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI не задан")
	}
	if c.OwnerID == 0 {
		return fmt.Errorf("OWNER_ID не задан или не число")
	}
	if role == "std" && c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN не задан")
	}
	return nil
}
