package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tryonfusion/studio/api"
	"github.com/tryonfusion/studio/catalog"
	"github.com/tryonfusion/studio/config"
	"github.com/tryonfusion/studio/gateway"
	"github.com/tryonfusion/studio/store"
	"github.com/tryonfusion/studio/studio"
	"github.com/tryonfusion/studio/utils"
)

const probeURL = "https://generativelanguage.googleapis.com/"

// imageStore adapts the S3 helpers to the studio.ImageStore interface.
type imageStore struct{}

func (imageStore) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	return utils.UploadImage(ctx, data, folder)
}

// probeConnectivity keeps the gate in sync with actual reachability of the
// image service endpoint.
func probeConnectivity(gate *studio.Gate) {
	client := &http.Client{Timeout: 10 * time.Second}
	for {
		resp, err := client.Head(probeURL)
		if err != nil {
			if gate.Online() {
				log.Println("Image service unreachable, closing connectivity gate")
			}
			gate.SetOnline(false)
		} else {
			resp.Body.Close()
			if !gate.Online() {
				log.Println("Image service reachable again, opening connectivity gate")
			}
			gate.SetOnline(true)
		}
		time.Sleep(30 * time.Second)
	}
}

func main() {
	config.LoadConfig()

	// Initialize MongoDB
	if err := utils.ConnectMongo(config.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	// Initialize Redis
	if err := utils.ConnectRedis(config.RedisAddr, config.RedisPassword); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Initialize S3
	if err := utils.InitS3(); err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}

	// Gemini gateway
	gw, err := gateway.NewClient(context.Background(), config.GeminiAPIKey, config.GeminiModel, utils.ResolveImageURL)
	if err != nil {
		log.Fatalf("Failed to create Gemini gateway: %v", err)
	}
	defer gw.Close()

	st := studio.New(gw, imageStore{}, store.NewSessionStore(), store.NewOutfitStore(utils.RedisClient), store.NewGenerationLog())
	api.Init(st, catalog.NewImporter())

	go probeConnectivity(st.Gate())

	// CORS Middleware
	corsMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	http.HandleFunc("/auth/signup", corsMiddleware(api.SignupHandler))
	http.HandleFunc("/auth/login", corsMiddleware(api.LoginHandler))

	http.HandleFunc("/profile/photo", corsMiddleware(api.AuthMiddleware(api.UploadProfilePhotoHandler)))

	http.HandleFunc("/studio/model", corsMiddleware(api.AuthMiddleware(api.CreateModelHandler)))
	http.HandleFunc("/studio/state", corsMiddleware(api.AuthMiddleware(api.StudioStateHandler)))
	http.HandleFunc("/studio/garment", corsMiddleware(api.AuthMiddleware(api.ApplyGarmentHandler)))
	http.HandleFunc("/studio/undo", corsMiddleware(api.AuthMiddleware(api.UndoHandler)))
	http.HandleFunc("/studio/pose", corsMiddleware(api.AuthMiddleware(api.SelectPoseHandler)))
	http.HandleFunc("/studio/background", corsMiddleware(api.AuthMiddleware(api.ChangeBackgroundHandler)))
	http.HandleFunc("/studio/enhance", corsMiddleware(api.AuthMiddleware(api.EnhanceHandler)))
	http.HandleFunc("/studio/reset", corsMiddleware(api.AuthMiddleware(api.StartOverHandler)))

	http.HandleFunc("/wardrobe/upload", corsMiddleware(api.AuthMiddleware(api.UploadGarmentHandler)))
	http.HandleFunc("/wardrobe/import", corsMiddleware(api.AuthMiddleware(api.ImportGarmentHandler)))

	http.HandleFunc("/outfits", corsMiddleware(api.AuthMiddleware(api.OutfitsHandler)))
	http.HandleFunc("/outfits/load", corsMiddleware(api.AuthMiddleware(api.LoadOutfitHandler)))

	http.HandleFunc("/gallery", corsMiddleware(api.AuthMiddleware(api.GalleryHandler)))
	http.HandleFunc("/feedback", corsMiddleware(api.AuthMiddleware(api.FeedbackHandler)))

	http.HandleFunc("/healthz", corsMiddleware(api.HealthzHandler))
	http.HandleFunc("/admin/connectivity", corsMiddleware(api.ConnectivityHandler))

	port := config.Port
	fmt.Printf("Server starting on port %s...\n", port)
	if err := http.ListenAndServe(":"+port, utils.LatencyMiddleware(http.DefaultServeMux)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
