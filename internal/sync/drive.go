package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"mymeals/internal/googleauth"
	"mymeals/internal/tabular"
)

// File names used in the connected Google Drive.
const (
	MealsFileName  = "my-meals-data.csv"
	FamilyFileName = "my-meals-family.csv"
)

// DriveBackend stores each collection as a CSV file in Google Drive.
type DriveBackend struct {
	auth *googleauth.Service

	// Overridable in tests.
	apiURL    string
	uploadURL string
}

func NewDriveBackend(auth *googleauth.Service) *DriveBackend {
	return &DriveBackend{
		auth:      auth,
		apiURL:    "https://www.googleapis.com/drive/v3",
		uploadURL: "https://www.googleapis.com/upload/drive/v3",
	}
}

func (b *DriveBackend) Name() string { return "drive" }

// Fetch downloads both CSV files. found is false when neither file exists.
func (b *DriveBackend) Fetch(ctx context.Context) (Snapshot, bool, error) {
	mealsID, err := b.findFile(ctx, MealsFileName)
	if err != nil {
		return Snapshot{}, false, err
	}
	familyID, err := b.findFile(ctx, FamilyFileName)
	if err != nil {
		return Snapshot{}, false, err
	}
	if mealsID == "" && familyID == "" {
		return Snapshot{}, false, nil
	}

	var snapshot Snapshot
	if mealsID != "" {
		text, err := b.downloadFile(ctx, mealsID)
		if err != nil {
			return Snapshot{}, false, err
		}
		snapshot.Meals = tabular.RowsToMeals(tabular.DecodeCSV(text))
	}
	if familyID != "" {
		text, err := b.downloadFile(ctx, familyID)
		if err != nil {
			return Snapshot{}, false, err
		}
		snapshot.Members = tabular.RowsToMembers(tabular.DecodeCSV(text))
	}
	return snapshot, true, nil
}

// Store uploads both collections, updating the existing files in place
// when they exist.
func (b *DriveBackend) Store(ctx context.Context, snapshot Snapshot) error {
	mealsCSV := tabular.EncodeCSV(tabular.MealsToRows(snapshot.Meals))
	familyCSV := tabular.EncodeCSV(tabular.MembersToRows(snapshot.Members))

	if err := b.uploadFile(ctx, MealsFileName, mealsCSV); err != nil {
		return err
	}
	return b.uploadFile(ctx, FamilyFileName, familyCSV)
}

// findFile returns the file ID for the given name, or "" when no such
// non-trashed file exists.
func (b *DriveBackend) findFile(ctx context.Context, fileName string) (string, error) {
	query := url.Values{
		"q":      {fmt.Sprintf("name='%s' and trashed=false", fileName)},
		"spaces": {"drive"},
		"fields": {"files(id,name)"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiURL+"/files?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := b.auth.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drive file lookup for %s returned %s", fileName, resp.Status)
	}

	var payload struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse drive file list: %w", err)
	}
	if len(payload.Files) == 0 {
		return "", nil
	}
	return payload.Files[0].ID, nil
}

func (b *DriveBackend) downloadFile(ctx context.Context, fileID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiURL+"/files/"+fileID+"?alt=media", nil)
	if err != nil {
		return "", err
	}
	resp, err := b.auth.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drive download returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// uploadFile creates or updates the named file with a multipart upload:
// a JSON metadata part followed by the CSV content.
func (b *DriveBackend) uploadFile(ctx context.Context, fileName, content string) error {
	existingID, err := b.findFile(ctx, fileName)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return err
	}
	metadata := map[string]string{"name": fileName, "mimeType": "text/csv"}
	if err := json.NewEncoder(metaPart).Encode(metadata); err != nil {
		return err
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", "text/csv")
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(filePart, content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	uploadURL := b.uploadURL + "/files?uploadType=multipart"
	method := http.MethodPost
	if existingID != "" {
		uploadURL = b.uploadURL + "/files/" + existingID + "?uploadType=multipart"
		method = http.MethodPatch
	}

	req, err := http.NewRequestWithContext(ctx, method, uploadURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := b.auth.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("drive upload of %s returned %s", fileName, resp.Status)
	}
	return nil
}
