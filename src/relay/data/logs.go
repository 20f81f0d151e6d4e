package data

import (
	"log"

	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/types"
)

// WriteLog records a relay attempt. Failures are logged and swallowed so a
// broken log table never aborts a relay.
func WriteLog(db *gorm.DB, formID, status, message string) {
	if db == nil {
		return
	}
	if err := db.Create(&types.RelayLog{FormID: formID, Status: status, Message: message}).Error; err != nil {
		log.Printf("relay log write failed for %s: %v", formID, err)
	}
}
