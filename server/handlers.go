package server

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/logging"
	"go.uber.org/zap"
)

type stateRequest struct {
	State string `json:"state"`
}

type selectionRequest struct {
	Repository string `json:"repository" binding:"required"`
}

type pathRequest struct {
	Path string `json:"path"`
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, ctrlFrom(c).View())
}

// connect starts an attempt and returns the URL the page opens in a popup.
// The outcome is applied in the background once the popup reports back.
func (s *Server) connect(c *gin.Context) {
	ctrl := ctrlFrom(c)
	h, err := ctrl.BeginConnect(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		_, err := ctrl.FinishConnect(ctx, h)
		if err != nil && !errors.Is(err, rlerrors.Superseded) {
			logging.WithContext(ctx).Info("authorization attempt failed", zap.String("reason", rlerrors.Kind(err)))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"auth_url": h.AuthURL(), "state": h.State()})
}

// cancelConnect is called when the popup closed without posting a message.
func (s *Server) cancelConnect(c *gin.Context) {
	var req stateRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": ctrlFrom(c).CancelConnect(req.State)})
}

func (s *Server) disconnect(c *gin.Context) {
	ctrl := ctrlFrom(c)
	if err := ctrl.Disconnect(c.Request.Context()); err != nil {
		logging.WithContext(c.Request.Context()).Warn("remote revoke failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (s *Server) repositories(c *gin.Context) {
	repos, err := ctrlFrom(c).Repositories(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, repos)
}

func (s *Server) selectRepository(c *gin.Context) {
	var req selectionRequest
	if !bind(c, &req) {
		return
	}
	id, err := entity.ParseRepositoryID(req.Repository)
	if err != nil {
		badRequest(c, err)
		return
	}
	root, err := ctrlFrom(c).SelectRepository(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, root)
}

func (s *Server) deselect(c *gin.Context) {
	if err := ctrlFrom(c).Deselect(); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) expand(c *gin.Context) {
	var req pathRequest
	if !bind(c, &req) {
		return
	}
	children, err := ctrlFrom(c).Expand(c.Request.Context(), req.Path)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path, "children": children})
}

func (s *Server) open(c *gin.Context) {
	var req pathRequest
	if !bind(c, &req) {
		return
	}
	file, err := ctrlFrom(c).OpenFile(c.Request.Context(), req.Path)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) closeFile(c *gin.Context) {
	ctrlFrom(c).CloseFile()
	c.Status(http.StatusNoContent)
}

func (s *Server) refresh(c *gin.Context) {
	children, err := ctrlFrom(c).Refresh(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": "", "children": children})
}

// bind decodes a JSON body. An empty body decodes as the zero request.
func bind(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	badRequest(c, err)
	return false
}
