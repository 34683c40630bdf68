package webapp

func (s *Server) registerRoutes() {
	// 页面
	s.app.Get("/", s.handleIndex)
	s.app.Get("/reports", s.handleReportsPage)

	// API
	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/meta", s.handleMeta)

	api.Post("/reports", s.handleSubmit)
	api.Get("/reports", s.handleListReports)
	api.Get("/reports/:id", s.handleGetReport)
	api.Post("/reports/:id/close", s.handleClose)
	api.Get("/reports/:id/attachments/:kind", s.handleAttachment)

	api.Get("/export.csv", s.handleExportCSV)
	api.Get("/export.pdf", s.handleExportPDF)
}
