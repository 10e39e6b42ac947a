// Package main, wschat relay sunucusunun giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (varsayılan: in-memory SQLite)
//  3. Repository'leri oluştur (DB bağlantısı ile)
//  4. WebSocket Hub'ı başlat
//  5. Service'leri + Dispatcher'ı oluştur ve Hub'a bağla
//  6. HTTP router'ı kur, route'ları bağla
//  7. CORS yapılandır
//  8. HTTP Server'ı başlat
//  9. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/wschat/config"
	"github.com/akinalp/wschat/database"
	"github.com/akinalp/wschat/pkg/censor"
	"github.com/akinalp/wschat/repository"
	"github.com/akinalp/wschat/services"
	"github.com/akinalp/wschat/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] wschat relay starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d, db=%s, admins=%v)",
		cfg.Server.Port, cfg.Database.Path, cfg.Chat.AdminUsers)

	// ─── 2. Database ───
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrations)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	banRepo := repository.NewSQLiteBanRepo(db.Conn)
	roomRepo := repository.NewSQLiteRoomRepo(db.Conn)

	// ─── 4. WebSocket Hub ───
	//
	// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı bir goroutine'de event loop başlatır:
	// register/unregister channel'larını dinler ve registry'yi günceller.
	// Hub aynı zamanda Relay interface'ini implement eder — service'ler
	// hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub(cfg.Chat.AdminUsers)

	// ─── 5. Service Layer + Dispatcher ───
	authService := services.NewAuthService(userRepo, banRepo)
	roomService := services.NewRoomService(roomRepo)
	modService := services.NewModerationService(db, userRepo, banRepo, hub, cfg.Chat.AdminUsers)
	filter := censor.New(cfg.Chat.CensorWords...)

	dispatcher := services.NewDispatcher(authService, roomService, modService, filter, hub)
	hub.SetDispatcher(dispatcher)

	// Disconnect callback — oturumlu bir bağlantı koptuğunda odaya duyur
	// ve admin'lerin online listesini tazele.
	//
	// Bu callback neden burada (main.go'da)?
	// Hub ws paketinde yaşıyor, ama duyuru metni ve admin listesi service
	// katmanının işi. Hub'ın service'lere bağımlı olmasını istemiyoruz
	// (Dependency Inversion). main.go wire-up noktasıdır.
	//
	// Callback, removeClient içinde `go callback()` ile ayrı goroutine'de
	// çalışır — Hub'ın registry lock'u ile broadcast'lerin lock'ları çakışmaz.
	hub.OnDisconnect(func(username, room string) {
		hub.BroadcastRoom(room, ws.SystemPacket(username+" left the chat."))
		modService.PushAdminList()
		log.Printf("[presence] user %s disconnected from room %s", username, room)
	})

	go hub.Run()

	// ─── 6. HTTP Router ───
	wsHandler := ws.NewHandler(hub)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"wschat"}`)
	})

	// WebSocket — tek chat endpoint'i. Auth yoktur: kimlik, bağlantı
	// üzerinden gelen register/login paketleriyle kurulur.
	mux.HandleFunc("/chat", wsHandler.HandleConnection)
	mux.HandleFunc("/chat/", wsHandler.HandleConnection)

	// ─── 7. CORS ───
	//
	// Desktop client'lar Origin header göndermez; browser tabanlı test
	// client'ları için localhost'a izin veriyoruz.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	handler := corsHandler.Handler(mux)

	// ─── 8. HTTP Server ───
	//
	// ReadTimeout/WriteTimeout YOK: WebSocket bağlantıları saatlerce açık
	// kalır, genel bir timeout onları koparırdı. IdleTimeout sadece
	// keep-alive HTTP bağlantılarını etkiler.
	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     handler,
		IdleTimeout: 60 * time.Second,
	}

	// ─── 9. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WebSocket bağlantılarını kapat, sonra HTTP server'ı.
	// Veda paketi send buffer'lara kapanıştan önce girer — WritePump channel
	// kapanmadan önce buffer'da bekleyenleri flush eder.
	hub.BroadcastAll(ws.SystemPacket("Server is shutting down."))
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
