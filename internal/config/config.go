package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		URL string
	}
	Redis struct {
		Addr string
	}
	Auth struct {
		JWTSecret         string
		AdminPasswordHash string
		TokenTTLMinutes   int
	}
	WebRTC struct {
		STUNServers  []string
		TURNURL      string
		TURNUsername string
		TURNPassword string
	}
}

// Load reads configuration from environment variables with sane local
// defaults. A missing DATABASE_URL falls back to a local SQLite file;
// a missing REDIS_ADDR disables the presence publisher.
func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "10000")
	v.SetDefault("database.url", "db.sqlite3")
	v.SetDefault("redis.addr", "")
	v.SetDefault("auth.jwt_secret", "dev")
	v.SetDefault("auth.token_ttl_minutes", 30*24*60) // 30-day sessions

	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.admin_password_hash", "ADMIN_PASSWORD_HASH")
	v.BindEnv("auth.token_ttl_minutes", "TOKEN_TTL_MINUTES")
	v.BindEnv("webrtc.stun_servers", "STUN_SERVERS")
	v.BindEnv("webrtc.turn_url", "TURN_URL")
	v.BindEnv("webrtc.turn_username", "TURN_USERNAME")
	v.BindEnv("webrtc.turn_password", "TURN_PASSWORD")

	var c Config
	c.Server.Port = v.GetString("server.port")
	c.Database.URL = v.GetString("database.url")
	c.Redis.Addr = v.GetString("redis.addr")
	c.Auth.JWTSecret = v.GetString("auth.jwt_secret")
	c.Auth.AdminPasswordHash = v.GetString("auth.admin_password_hash")
	c.Auth.TokenTTLMinutes = v.GetInt("auth.token_ttl_minutes")
	if stun := v.GetString("webrtc.stun_servers"); stun != "" {
		c.WebRTC.STUNServers = strings.Split(stun, ",")
	}
	c.WebRTC.TURNURL = v.GetString("webrtc.turn_url")
	c.WebRTC.TURNUsername = v.GetString("webrtc.turn_username")
	c.WebRTC.TURNPassword = v.GetString("webrtc.turn_password")
	return c
}
