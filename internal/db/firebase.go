package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	fdb "firebase.google.com/go/v4/db"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/onlinetravel/internal/config"
)

// Firebase bundles the admin SDK clients behind the package interfaces.
type Firebase struct {
	App      *firebase.App
	Auth     *auth.Client
	Database *FirebaseDatabase
	Files    *FirebaseFiles
	Verifier *FirebaseVerifier
}

// InitFirebase initializes the Firebase Admin SDK from appConfig. Credentials
// come from GOOGLE_APPLICATION_CREDENTIALS, FIREBASE_SERVICE_ACCOUNT_JSON_BASE64,
// or Application Default Credentials when neither is set.
func InitFirebase(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*Firebase, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := credentialOptions(appConfig, logger)
	if err != nil {
		return nil, err
	}

	conf := &firebase.Config{
		ProjectID:     appConfig.FirebaseProjectID,
		DatabaseURL:   appConfig.FirebaseDatabaseURL,
		StorageBucket: appConfig.FirebaseStorageBucket,
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	logger.Info("Firebase Auth client initialized")

	storageClient, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Storage: %w", err)
	}
	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("storage default bucket: %w", err)
	}
	logger.Info("Firebase Storage bucket initialized", zap.String("bucket", appConfig.FirebaseStorageBucket))

	verifier := NewFirebaseVerifier(authClient)

	// The admin SDK bypasses security rules unless the app is scoped to a uid,
	// so each signed-in user gets a database client with an auth override.
	connect := func(ctx context.Context, uid string) (*fdb.Client, error) {
		override := map[string]interface{}{"uid": uid}
		userApp, err := firebase.NewApp(ctx, &firebase.Config{
			ProjectID:    appConfig.FirebaseProjectID,
			DatabaseURL:  appConfig.FirebaseDatabaseURL,
			AuthOverride: &override,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("firebase.NewApp for %s: %w", uid, err)
		}
		return userApp.Database(ctx)
	}

	return &Firebase{
		App:      app,
		Auth:     authClient,
		Database: NewFirebaseDatabase(verifier, connect, logger),
		Files:    NewFirebaseFiles(verifier, bucket, appConfig.FirebaseStorageBucket),
		Verifier: verifier,
	}, nil
}

func credentialOptions(appConfig *config.Config, logger *zap.Logger) ([]option.ClientOption, error) {
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("Credentials file does not exist", zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		logger.Info("Initializing Firebase with credentials file", zap.String("path", appConfig.GoogleApplicationCredentials))
		return []option.ClientOption{option.WithCredentialsFile(appConfig.GoogleApplicationCredentials)}, nil
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		logger.Info("Initializing Firebase with Base64 encoded service account JSON")
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}, nil
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
		return nil, nil
	}
}
