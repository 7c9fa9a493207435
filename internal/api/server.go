package api

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/mims/internal/logger"
	"github.com/samcharles93/mims/pkg/mims"
	"github.com/samcharles93/mims/pkg/raster"
)

type ServerConfig struct {
	// DataDir bounds the files clients may open.
	DataDir string
	Options []mims.Option
	Logger  logger.Logger
}

type Server struct {
	store   *FileStore
	dataDir string
	opts    []mims.Option
	log     logger.Logger
	clock   func() time.Time
}

func NewServer(store *FileStore, cfg ServerConfig) (*Server, error) {
	if store == nil {
		store = NewFileStore()
	}
	if cfg.DataDir == "" {
		return nil, errors.New("api: data directory is required")
	}
	dir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		store:   store,
		dataDir: dir,
		opts:    append([]mims.Option{mims.WithLogger(log)}, cfg.Options...),
		log:     log,
		clock:   time.Now,
	}, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/files", s.handleOpenFile)
	e.GET("/v1/files", s.handleListFiles)
	e.GET("/v1/files/:id", s.handleGetFile)
	e.DELETE("/v1/files/:id", s.handleDeleteFile)
	e.GET("/v1/files/:id/metadata", s.handleMetadata)
	e.GET("/v1/files/:id/consistency", s.handleConsistency)
	e.GET("/v1/files/:id/planes/:mass/:plane", s.handlePlane)
}

func (s *Server) handleOpenFile(c *echo.Context) error {
	req, err := decodeJSON[OpenFileRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	path, err := resolvePath(s.dataDir, req.Path)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	f, err := mims.Open(path, s.opts...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return writeNotFound(c, "file not found: "+req.Path)
		}
		s.log.Warn("open failed", "path", path, "err", err)
		return writeUndecodable(c, err.Error(), errorCode(err))
	}

	name, _ := filepath.Rel(s.dataDir, path)
	rec := s.store.Add(name, f, s.clock())
	s.log.Info("opened file", "id", rec.ID, "path", name, "format", string(f.Format()))
	return writeJSON(c, http.StatusCreated, fileInfo(rec))
}

func (s *Server) handleListFiles(c *echo.Context) error {
	recs := s.store.List()
	out := FileList{Object: "list", Data: make([]FileInfo, 0, len(recs))}
	for _, rec := range recs {
		out.Data = append(out.Data, fileInfo(rec))
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) lookup(c *echo.Context) (*fileRecord, error) {
	id := c.Param("id")
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, writeNotFound(c, "file not found: "+id)
	}
	return rec, nil
}

func (s *Server) handleGetFile(c *echo.Context) error {
	rec, err := s.lookup(c)
	if rec == nil {
		return err
	}
	return writeJSON(c, http.StatusOK, fileInfo(rec))
}

func (s *Server) handleDeleteFile(c *echo.Context) error {
	id := c.Param("id")
	ok, err := s.store.Delete(id)
	if !ok {
		return writeNotFound(c, "file not found: "+id)
	}
	if err != nil {
		s.log.Warn("close failed", "id", id, "err", err)
	}
	return writeJSON(c, http.StatusOK, DeleteResponse{ID: id, Object: "file", Deleted: true})
}

func (s *Server) handleMetadata(c *echo.Context) error {
	rec, err := s.lookup(c)
	if rec == nil {
		return err
	}
	return writeJSON(c, http.StatusOK, map[string]any{
		"id":       rec.ID,
		"metadata": rec.File.Metadata(),
		"summary":  rec.File.Summary(),
	})
}

func (s *Server) handleConsistency(c *echo.Context) error {
	rec, err := s.lookup(c)
	if rec == nil {
		return err
	}
	out := ConsistencyResponse{ID: rec.ID, Consistent: true}
	if rec.SizeErr != nil {
		out.Consistent = false
		out.Error = rec.SizeErr.Error()
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handlePlane(c *echo.Context) error {
	rec, err := s.lookup(c)
	if rec == nil {
		return err
	}
	mass, err := strconv.Atoi(c.Param("mass"))
	if err != nil {
		return writeBadRequest(c, "mass must be an integer")
	}
	plane, err := strconv.Atoi(c.Param("plane"))
	if err != nil {
		return writeBadRequest(c, "plane must be an integer")
	}

	f := rec.File
	p, err := f.ReadPlane(mass, plane)
	if err != nil {
		if errors.Is(err, raster.ErrIndexOutOfRange) {
			return writeBadRequest(c, err.Error())
		}
		return writeUndecodable(c, err.Error(), errorCode(err))
	}

	switch c.QueryParam("format") {
	case "", "json":
	case "raw":
		h := c.Response().Header()
		h.Set("X-Mims-Width", strconv.Itoa(p.Width))
		h.Set("X-Mims-Height", strconv.Itoa(p.Height))
		h.Set("X-Mims-Type", p.Type.String())
		return writeBody(c, http.StatusOK, echo.MIMEOctetStream, p.AppendBytes(nil, binary.LittleEndian))
	default:
		return writeBadRequest(c, "format must be json or raw")
	}

	name, _ := f.MassName(mass)
	label, _ := f.MassLabel(mass)
	return writeJSON(c, http.StatusOK, PlaneResponse{
		ID:        rec.ID,
		Mass:      mass,
		Plane:     plane,
		MassName:  name,
		MassLabel: label,
		Width:     p.Width,
		Height:    p.Height,
		Type:      p.Type.String(),
		Values:    p.Values(),
	})
}

func fileInfo(rec *fileRecord) FileInfo {
	f := rec.File
	return FileInfo{
		ID:         rec.ID,
		Object:     "file",
		Name:       rec.Name,
		Format:     string(f.Format()),
		Masses:     f.MassCount(),
		Planes:     f.PlaneCount(),
		Width:      f.Width(),
		Height:     f.Height(),
		SampleType: f.SampleType().String(),
		MassNames:  f.MassNames(),
		MassLabels: f.MassLabels(),
		SampleName: f.SampleName(),
		UserName:   f.UserName(),
		Consistent: rec.SizeErr == nil,
		OpenedAt:   rec.OpenedAt,
	}
}
