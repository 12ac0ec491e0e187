package feishu

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wwwbq/FlashMemo/pkg/codec"
)

// Drive file types.
const (
	fileTypeFolder = "folder"
	fileTypeDocx   = "docx"
)

// maxChildrenPerCall is the number of blocks the API accepts per insert.
const maxChildrenPerCall = 50

// driveFile is an entry of a folder listing.
type driveFile struct {
	Token        string `json:"token"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	ModifiedTime string `json:"modified_time,omitempty"`
}

// listFolder returns every entry of a folder, following pagination.
func (s *Store) listFolder(ctx context.Context, folderToken string) ([]driveFile, error) {
	var files []driveFile
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("folder_token", folderToken)
		q.Set("page_size", "200")
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var data struct {
			Files         []driveFile `json:"files"`
			HasMore       bool        `json:"has_more"`
			NextPageToken string      `json:"next_page_token"`
		}
		if err := s.client.do(ctx, http.MethodGet, "/drive/v1/files", q, nil, &data); err != nil {
			return nil, err
		}
		files = append(files, data.Files...)
		if !data.HasMore || data.NextPageToken == "" {
			return files, nil
		}
		pageToken = data.NextPageToken
	}
}

func (s *Store) createFolder(ctx context.Context, name string) (string, error) {
	body := map[string]string{"name": name, "folder_token": s.config.RootToken}
	var data struct {
		Token string `json:"token"`
	}
	if err := s.client.do(ctx, http.MethodPost, "/drive/v1/files/create_folder", nil, body, &data); err != nil {
		return "", err
	}
	return data.Token, nil
}

func (s *Store) createDocument(ctx context.Context, folderToken, title string) (string, error) {
	body := map[string]string{"folder_token": folderToken, "title": title}
	var data struct {
		Document struct {
			DocumentID string `json:"document_id"`
		} `json:"document"`
	}
	if err := s.client.do(ctx, http.MethodPost, "/docx/v1/documents", nil, body, &data); err != nil {
		return "", err
	}
	return data.Document.DocumentID, nil
}

// appendBlocks adds blocks under the document's root block, in batches.
func (s *Store) appendBlocks(ctx context.Context, docID string, blocks []codec.Block) error {
	path := "/docx/v1/documents/" + escapePath(docID) + "/blocks/" + escapePath(docID) + "/children"
	for start := 0; start < len(blocks); start += maxChildrenPerCall {
		end := min(start+maxChildrenPerCall, len(blocks))
		body := map[string]any{"children": blocks[start:end], "index": -1}
		if err := s.client.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// listBlocks returns every block of a document in order, page block included.
func (s *Store) listBlocks(ctx context.Context, docID string) ([]codec.Block, error) {
	path := "/docx/v1/documents/" + escapePath(docID) + "/blocks"
	var blocks []codec.Block
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("page_size", strconv.Itoa(500))
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var data struct {
			Items     []codec.Block `json:"items"`
			HasMore   bool          `json:"has_more"`
			PageToken string        `json:"page_token"`
		}
		if err := s.client.do(ctx, http.MethodGet, path, q, nil, &data); err != nil {
			return nil, err
		}
		blocks = append(blocks, data.Items...)
		if !data.HasMore || data.PageToken == "" {
			return blocks, nil
		}
		pageToken = data.PageToken
	}
}

func (s *Store) deleteDocument(ctx context.Context, token string) error {
	q := url.Values{}
	q.Set("type", fileTypeDocx)
	return s.client.do(ctx, http.MethodDelete, "/drive/v1/files/"+escapePath(token), q, nil, nil)
}
