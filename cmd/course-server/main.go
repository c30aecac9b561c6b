// Package main Course Assistant API Server
//
//	@title			Course Assistant API
//	@version		1.0
//	@description	Retrieval-augmented question answering over course transcripts
//
//	@host		localhost:8080
//	@BasePath	/
package main

import (
	"context"
	"log"
	"os"

	"course-assistant/internal/config"
	"course-assistant/internal/server"
)

func main() {
	log.Println("Starting Course Assistant server...")

	cfg := config.Load()
	srv, rag, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Load any transcripts sitting in the docs folder before serving.
	if _, err := os.Stat(cfg.DocsPath); err == nil {
		courses, chunks, err := rag.AddCourseFolder(context.Background(), cfg.DocsPath, false)
		if err != nil {
			log.Printf("Startup document load failed: %v", err)
		} else {
			log.Printf("Startup document load: %d new courses, %d chunks", courses, chunks)
		}
	}

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
