package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port         int
	Password     string
	DatabasePath string
	LogDirectory string

	CameraIndex       int
	CameraWidth       int
	CameraHeight      int
	CameraFPS         int
	CaptureIntervalMs int // pacing of the capture loop (~60 Hz default)

	DetectorModelPath  string
	DetectorConfigPath string
	EmbedderModelPath  string

	Tolerance             float64 // max face distance accepted as a match
	MinMarkConfidence     float64 // minimum confidence to auto-mark attendance
	RecognitionIntervalMs int     // pacing of the recognition loop

	StudentImagesDir string
}

func Load() *Config {
	return &Config{
		Port:         getEnvAsInt("PORT", 8080),
		Password:     getEnv("PASSWORD", "admin"),
		DatabasePath: getEnv("DATABASE_PATH", filepath.Join("data", "attendance.db")),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),

		CameraIndex:       getEnvAsInt("CAMERA_INDEX", 0),
		CameraWidth:       getEnvAsInt("CAMERA_WIDTH", 640),
		CameraHeight:      getEnvAsInt("CAMERA_HEIGHT", 480),
		CameraFPS:         getEnvAsInt("CAMERA_FPS", 30),
		CaptureIntervalMs: getEnvAsInt("CAPTURE_INTERVAL_MS", 16),

		DetectorModelPath:  getEnv("DETECTOR_MODEL_PATH", filepath.Join("models", "res10_300x300_ssd_iter_140000.caffemodel")),
		DetectorConfigPath: getEnv("DETECTOR_CONFIG_PATH", filepath.Join("models", "deploy.prototxt")),
		EmbedderModelPath:  getEnv("EMBEDDER_MODEL_PATH", filepath.Join("models", "nn4.small2.v1.t7")),

		Tolerance:             getEnvAsFloat("FACE_TOLERANCE", 0.6),
		MinMarkConfidence:     getEnvAsFloat("MIN_MARK_CONFIDENCE", 0.4),
		RecognitionIntervalMs: getEnvAsInt("RECOGNITION_INTERVAL_MS", 250),

		StudentImagesDir: getEnv("STUDENT_IMAGES_DIR", "student_images"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
