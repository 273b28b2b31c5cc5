package seeds

import (
	"log"

	"attendance_backend/internals/seeds/demo"

	"gorm.io/gorm"
)

func RunAllSeeds(db *gorm.DB) {
	//* Demo: guru + enrollment + 3 siswa
	if err := demo.SeedDemo(db); err != nil {
		log.Printf("❌ Seed demo gagal: %v", err)
	}
}
