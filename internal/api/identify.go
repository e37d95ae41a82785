package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kalambet/grimoire/internal/crystal"
	"github.com/kalambet/grimoire/internal/identify"
	"github.com/kalambet/grimoire/internal/vision"
)

const maxIdentifyBodySize = 20 << 20 // 20MB

type identifyRequest struct {
	ImageData   string         `json:"image_data"`
	MIMEType    string         `json:"mime_type"`
	UserContext map[string]any `json:"user_context"`
	OwnerID     string         `json:"owner_id"`
	Save        bool           `json:"save"`
}

func handleIdentify(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Identify == nil {
			writeError(w, vision.ErrNotConfigured, "")
			return
		}

		var (
			req identify.Request
			err error
		)
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			req, err = readMultipartIdentify(w, r)
		} else {
			req, err = readJSONIdentify(w, r)
		}
		if err != nil {
			writeError(w, err, "")
			return
		}

		rec, err := deps.Identify.Identify(r.Context(), req)
		if err != nil {
			writeError(w, err, "failed to identify crystal")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func readJSONIdentify(w http.ResponseWriter, r *http.Request) (identify.Request, error) {
	var body identifyRequest
	if err := decodeBody(w, r, maxIdentifyBodySize, &body); err != nil {
		return identify.Request{}, err
	}

	data, mimeType, err := decodeImageData(body.ImageData)
	if err != nil {
		return identify.Request{}, err
	}
	if body.MIMEType != "" {
		mimeType = body.MIMEType
	}

	return identify.Request{
		Image:       data,
		MIMEType:    mimeType,
		UserContext: body.UserContext,
		OwnerID:     body.OwnerID,
		Save:        body.Save,
	}, nil
}

func readMultipartIdentify(w http.ResponseWriter, r *http.Request) (identify.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIdentifyBodySize)
	if err := r.ParseMultipartForm(maxIdentifyBodySize); err != nil {
		var mberr *http.MaxBytesError
		if errors.As(err, &mberr) {
			return identify.Request{}, err
		}
		return identify.Request{}, &crystal.ValidationError{Field: "body", Message: "invalid multipart form: " + err.Error()}
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		return identify.Request{}, &crystal.ValidationError{Field: "image", Message: "is required"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return identify.Request{}, err
	}

	req := identify.Request{
		Image:    data,
		MIMEType: r.FormValue("mime_type"),
		OwnerID:  r.FormValue("owner_id"),
	}
	if req.MIMEType == "" {
		if ct := header.Header.Get("Content-Type"); ct != "application/octet-stream" {
			req.MIMEType = ct
		}
	}
	if s := r.FormValue("save"); s != "" {
		if req.Save, err = strconv.ParseBool(s); err != nil {
			return identify.Request{}, &crystal.ValidationError{Field: "save", Message: "must be a boolean"}
		}
	}
	if s := r.FormValue("user_context"); s != "" {
		if err := json.Unmarshal([]byte(s), &req.UserContext); err != nil {
			return identify.Request{}, &crystal.ValidationError{Field: "user_context", Message: "must be a JSON object"}
		}
	}
	return req, nil
}

// decodeImageData decodes base64 image data. A data URL prefix
// ("data:image/png;base64,") is accepted and yields the MIME type.
func decodeImageData(s string) ([]byte, string, error) {
	var mimeType string
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", &crystal.ValidationError{Field: "image_data", Message: "unsupported data URL"}
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, "", &crystal.ValidationError{Field: "image_data", Message: "is not valid base64"}
	}
	return data, mimeType, nil
}
