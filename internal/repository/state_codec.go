package repository

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"StockX/internal/domain/models"

	"github.com/vmihailenco/msgpack/v5"
)

// encodeState serializes a state as msgpack, or JSON for .json paths.
func encodeState(path string, st *models.ARIMAState) ([]byte, error) {
	if isJSON(path) {
		return json.MarshalIndent(st, "", "  ")
	}
	return msgpack.Marshal(st)
}

func decodeState(path string, b []byte) (*models.ARIMAState, error) {
	var st models.ARIMAState
	var err error
	if isJSON(path) {
		err = json.Unmarshal(b, &st)
	} else {
		err = msgpack.Unmarshal(b, &st)
	}
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
