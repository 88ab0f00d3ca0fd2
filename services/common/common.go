package common

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/elliotttmiller/NSSPORTS-sub002/models"
)

// RecordError logs an error and writes it to the error_logs table so failures
// in background jobs survive a restart.
func RecordError(db *gorm.DB, source string, err error) {
	log.Printf("[%s] %v", source, err)

	errLog := models.ErrorLog{
		Source:  source,
		Message: fmt.Sprintf("%v", err),
	}
	db.Create(&errLog)
}

func Contains[T comparable](s []T, e T) bool {
	for _, v := range s {
		if v == e {
			return true
		}
	}
	return false
}
