package api

import (
	"github.com/gin-gonic/gin"
)

// Server groups the three tagged-union handlers and the auth middleware
// that gates them, and mounts them onto a shared router group.
type Server struct {
	Auth     *Authorizer
	Reader   *Reader
	Writer   *Writer
	Executor *Executor
}

func NewServer(auth *Authorizer, reader *Reader, writer *Writer, executor *Executor) *Server {
	return &Server{Auth: auth, Reader: reader, Writer: writer, Executor: executor}
}

// Register mounts /auth/login (unauthenticated) and the authenticated
// /read, /write, /execute endpoints onto r.
func (s *Server) Register(r gin.IRouter) {
	r.POST("/auth/login", s.Auth.Login)

	g := r.Group("", s.Auth.Middleware())
	g.POST("/read", s.Reader.Handle)
	g.POST("/write", s.Writer.Handle)
	g.POST("/execute", s.Executor.Handle)
}
