package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent at this point, logging is all we can do
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// RespondError sends a JSON error response and logs the error to the provided
// log builder, or stdout when nil.
func RespondError(w http.ResponseWriter, logger *strings.Builder, message string, status int) {
	if logger != nil {
		AddToLogMessage(logger, message)
	} else {
		fmt.Println("[Error]", message)
	}
	RespondJSON(w, status, map[string]string{"error": message})
}

// AddToLogMessage appends one line to a per-request log builder. The builder
// is flushed in one print when the handler returns, keeping a request's log
// lines together.
func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {
	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";\n")
}

// PresignImageURL resolves a single image reference for a response, falling
// back to the raw reference if presigning fails.
func PresignImageURL(ctx context.Context, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	if url, err := GetPresignedURL(ctx, ref); err == nil {
		return url
	}
	return ref
}

// PresignImageURLs resolves a slice of references, keeping http(s) URLs as
// is and falling back to the key on S3 failure.
func PresignImageURLs(ctx context.Context, images []string) []string {
	presignedURLs := make([]string, 0, len(images))
	for _, img := range images {
		presignedURLs = append(presignedURLs, PresignImageURL(ctx, img))
	}
	return presignedURLs
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		fmt.Printf("[LATENCY] %s %s - %v\n", r.Method, r.URL.Path, duration)
	})
}
