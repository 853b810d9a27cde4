package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"example.com/tscfg/internal/cfgbin"
	"example.com/tscfg/internal/common"
	"example.com/tscfg/internal/report"
)

type decodeError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// decodeInput decodes data and records the outcome in the metrics and the
// audit log.
func (s *Server) decodeInput(name string, data []byte) (*cfgbin.CfgBin, string, error) {
	digest := common.Sha256Hex(data)
	size := int64(len(data))
	bin, err := cfgbin.Decode(data)
	entry := common.DecodeEntry{File: name, Sha256: digest, Size: size, OK: err == nil}
	if err != nil {
		s.metrics.AddFailed(size)
		entry.Kind = cfgbin.Kind(err)
		entry.Error = err.Error()
	} else {
		s.metrics.AddDecoded(size, len(bin.Packages()))
		entry.PkgNum = int(bin.Head().PkgNum)
	}
	if s.audit != nil {
		if aerr := s.audit.Append(entry); aerr != nil {
			common.Logf("audit append %s: %v", name, aerr)
		}
	}
	return bin, digest, err
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "text" && format != "pdf" {
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
		return
	}
	name, data, err := s.readInput(w, r)
	if err != nil {
		http.Error(w, err.Error(), statusForBodyError(err))
		return
	}
	bin, digest, err := s.decodeInput(name, data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, decodeError{Error: err.Error(), Kind: cfgbin.Kind(err)})
		return
	}

	switch format {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := report.WriteText(w, bin); err != nil {
			common.Logf("write text for %s: %v", name, err)
		}
	case "pdf":
		art, err := s.renderPDF(bin, name, digest)
		if err != nil {
			http.Error(w, fmt.Sprintf("render pdf: %v", err), http.StatusInternalServerError)
			return
		}
		resp := struct {
			Sha256 string      `json:"sha256"`
			Report ArtifactRef `json:"report"`
		}{Sha256: digest, Report: toRef(art)}
		writeJSON(w, http.StatusOK, resp)
	default:
		writeJSON(w, http.StatusOK, cfgbin.NewView(bin))
	}
}

func (s *Server) renderPDF(bin *cfgbin.CfgBin, name, digest string) (Artifact, error) {
	path, err := s.tempPath("report-*.pdf")
	if err != nil {
		return Artifact{}, err
	}
	opts := s.pdf
	opts.Source = name
	opts.Digest = digest
	if err := report.SavePDF(bin, opts, path); err != nil {
		os.Remove(path)
		return Artifact{}, err
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return s.addArtifact(path, base+".pdf", "application/pdf", "report")
}

// readInput returns the cfg bin carried by r, either as the raw body or as
// the first file of a multipart form.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return "", nil, fmt.Errorf("parse multipart: %w", err)
		}
		fh := firstFile(r.MultipartForm)
		if fh == nil {
			return "", nil, errors.New("no file provided")
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, fmt.Errorf("read upload: %w", err)
		}
		return fh.Filename, data, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return "", nil, errors.New("empty body")
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "upload.bin"
	}
	return name, data, nil
}

func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File["file"]; len(files) > 0 {
		return files[0]
	}
	for _, files := range form.File {
		if len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func statusForBodyError(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) handleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/artifacts/")
	if id == "" {
		writeJSON(w, http.StatusOK, s.listArtifacts())
		return
	}
	art, ok := s.getArtifact(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, fmt.Sprintf("stat artifact: %v", err), http.StatusInternalServerError)
		return
	}
	if art.ContentType != "" {
		w.Header().Set("Content-Type", art.ContentType)
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", art.Name))
	io.Copy(w, f)
}
