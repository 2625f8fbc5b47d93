// Command migrate imports a student roster from a directory of reference
// photos. Filenames follow <student_id>_<Name_Parts>.jpg, for example
// S101_John_Doe.jpg. Each photo is encoded once at import time so the server
// never encodes on the hot path.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"attendance/internal/config"
	"attendance/internal/service/face"
	"attendance/internal/logger"
	"attendance/internal/model"
	"attendance/internal/repository/sqlite"
)

// parseFilename splits <student_id>_<Name_Parts>.jpg into its ID and
// human-readable name.
func parseFilename(name string) (studentID, fullName string, err error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("expected <student_id>_<Name>.jpg, got %q", name)
	}
	return parts[0], strings.Join(parts[1:], " "), nil
}

func main() {
	_ = godotenv.Load()

	imagesDir := flag.String("students", "student_images", "Directory containing student reference photos")
	dbPath := flag.String("db", filepath.Join("data", "attendance.db"), "Database path")
	flag.Parse()

	fmt.Printf("Importing students from %s into %s\n", *imagesDir, *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	students := sqlite.NewStudentRepository(db)

	cfg := config.Load()
	appLog := logger.NewLogger(cfg)
	capability, err := face.NewGocvCapability(cfg, appLog)
	if err != nil {
		log.Printf("Warning: face models unavailable (%v); importing without encodings", err)
	}

	files, err := os.ReadDir(*imagesDir)
	if err != nil {
		log.Fatalf("Failed to read students directory: %v", err)
	}

	var imported, skipped, unencoded int
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			continue
		}

		studentID, fullName, err := parseFilename(file.Name())
		if err != nil {
			log.Printf("Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		existing, err := students.GetByStudentID(studentID)
		if err != nil {
			log.Fatalf("Lookup failed for %s: %v", studentID, err)
		}
		if existing != nil {
			log.Printf("Skipping %s: already imported", studentID)
			skipped++
			continue
		}

		imagePath := filepath.Join(*imagesDir, file.Name())
		var encoding []float32
		if capability != nil {
			vec, ok, err := capability.EncodeImage(imagePath)
			if err != nil {
				log.Printf("Warning: could not read %s: %v", file.Name(), err)
			} else if !ok {
				log.Printf("Warning: %s does not contain exactly one face", file.Name())
			} else {
				encoding = vec
			}
		}
		if encoding == nil {
			unencoded++
		}

		student := &model.Student{
			StudentID: studentID,
			Name:      fullName,
			ImagePath: imagePath,
			Encoding:  encoding,
			IsActive:  true,
		}
		if _, err := students.Insert(student); err != nil {
			log.Fatalf("Failed to insert %s: %v", studentID, err)
		}
		imported++
	}

	fmt.Printf("Imported %d students (%d without encodings, %d skipped)\n", imported, unencoded, skipped)
}
