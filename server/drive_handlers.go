package server

import (
	"io"
	"mime"
	"net/http"
)

// DriveAuthorizeHandler starts the delegation flow for the caller and
// returns the provider authorization URL for the client to navigate to.
func (s *Server) DriveAuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		authURL, err := s.broker.BeginAuthorization(session.Email)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"authUrl": authURL})
	}
}

// DriveCallbackHandler handles the provider redirect. It is reachable
// without a session; the signed state nonce proves which user initiated
// the flow. Success and failure both render a terminal HTML page so the
// popup never hangs.
func (s *Server) DriveCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			s.logger.Warn().Str("error", errParam).Msg("provider denied authorization")
			renderCallbackError(w, "Authorization was denied by the provider.")
			return
		}

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")

		email, err := s.broker.CompleteAuthorization(r.Context(), code, state)
		if err != nil {
			s.logger.Warn().Err(err).Msg("authorization exchange failed")
			renderCallbackError(w, "Authorization failed. Close this window and try again.")
			return
		}

		s.logger.Info().Str("email", email).Msg("drive authorization completed")
		renderCallbackSuccess(w)
	}
}

// DriveScreenshotsHandler lists the caller's image files, newest first.
func (s *Server) DriveScreenshotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		token, err := s.broker.TokenFor(session.Email)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		files, err := s.drive.ListImages(r.Context(), token)
		if err != nil {
			s.logger.Warn().Err(err).Str("email", session.Email).Msg("drive listing failed")
			writeTaxonomyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"files":   files,
		})
	}
}

// DriveDownloadHandler streams a single file back to the caller with its
// original content type and name. The provider stream is copied straight
// to the response; nothing is buffered in full.
func (s *Server) DriveDownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		fileID := r.PathValue("fileID")
		if fileID == "" {
			writeJSONError(w, http.StatusBadRequest, "file id is required")
			return
		}

		token, err := s.broker.TokenFor(session.Email)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		meta, body, err := s.drive.Download(r.Context(), token, fileID)
		if err != nil {
			s.logger.Warn().Err(err).Str("file_id", fileID).Msg("drive download failed")
			writeTaxonomyError(w, err)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", meta.MimeType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.Name}))

		if _, err := io.Copy(w, body); err != nil {
			// Headers are gone; all we can do is log the broken stream.
			s.logger.Warn().Err(err).Str("file_id", fileID).Msg("download stream interrupted")
		}
	}
}

// DriveDisconnectHandler clears the caller's delegated token set.
func (s *Server) DriveDisconnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if err := s.broker.Disconnect(session.Email); err != nil {
			writeTaxonomyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
