package siteforge

import (
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/eringen/siteforge/objectstore"
)

// Extensions the chat-based file editor may read and write.
var textExtensions = map[string]bool{
	".html": true, ".css": true, ".js": true, ".txt": true, ".json": true, ".xml": true,
}

func (a *App) handleBrowse(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	domain := SessionDomain(c)

	prefix := c.Param("*")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	infos, err := t.objects.List(c.Request().Context(), prefix)
	if err != nil {
		return Render(c, a.Views.Files(domain, prefix, nil, nil, err.Error(), CsrfToken(c)))
	}

	items := listDirectory(prefix, infos)

	var parent *string
	if prefix != "" {
		parts := strings.Split(strings.TrimRight(prefix, "/"), "/")
		p := ""
		if len(parts) > 1 {
			p = strings.Join(parts[:len(parts)-1], "/") + "/"
		}
		parent = &p
	}

	return Render(c, a.Views.Files(domain, prefix, items, parent, "", CsrfToken(c)))
}

// listDirectory collapses a flat key listing into one directory level:
// keys with a further "/" under the prefix become folders, the rest
// files. Folders sort first, then names case-insensitively.
func listDirectory(prefix string, infos []objectstore.ObjectInfo) []FileItem {
	var items []FileItem
	folders := map[string]bool{}

	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, prefix)
		if rest == "" {
			continue // the folder marker object itself
		}
		if idx := strings.Index(rest, "/"); idx >= 0 {
			name := rest[:idx]
			if !folders[name] {
				folders[name] = true
				items = append(items, FileItem{
					IsFolder: true,
					Name:     name,
					Key:      prefix + name + "/",
				})
			}
			continue
		}
		items = append(items, FileItem{
			Name:     rest,
			Key:      info.Key,
			Size:     FormatSize(info.Size),
			Modified: info.LastModified.Format("2006-01-02 15:04"),
			IsImage:  IsImagePath(rest),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].IsFolder != items[j].IsFolder {
			return items[i].IsFolder
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items
}

func (a *App) handleDownload(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	key := c.Param("*")

	body, err := t.objects.Get(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}

	filename := path.Base(key)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+url.PathEscape(filename)+`"`)
	return c.Blob(http.StatusOK, "application/octet-stream", body)
}

func (a *App) handleFileContent(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	key := c.Param("*")

	if !textExtensions[strings.ToLower(path.Ext(key))] {
		return echo.NewHTTPError(http.StatusBadRequest, "only text files can be read")
	}

	body, err := t.objects.Get(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	if !utf8.Valid(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "file is not valid UTF-8 text")
	}
	return c.JSON(http.StatusOK, map[string]string{"content": string(body), "key": key})
}

func (a *App) handleEditableFiles(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}

	infos, err := t.objects.List(c.Request().Context(), "")
	if err != nil {
		return err
	}

	type editableFile struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	var files []editableFile
	for _, info := range infos {
		if strings.HasPrefix(info.Key, "_builder/") {
			continue
		}
		ext := strings.ToLower(path.Ext(info.Key))
		if ext == ".html" || ext == ".css" || ext == ".js" || ext == ".txt" {
			files = append(files, editableFile{Key: info.Key, Name: path.Base(info.Key)})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"files": files})
}

func (a *App) handleUpload(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	prefix := c.FormValue("prefix")

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}

	ctx := c.Request().Context()
	for _, file := range files {
		if file.Filename == "" {
			continue
		}
		src, err := file.Open()
		if err != nil {
			return err
		}
		body, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return err
		}
		contentType := file.Header.Get(echo.HeaderContentType)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := t.objects.Put(ctx, prefix+file.Filename, body, contentType); err != nil {
			return err
		}
	}
	return c.Redirect(http.StatusSeeOther, "/files/"+prefix)
}

func (a *App) handleDelete(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	key := c.FormValue("key")
	prefix := c.FormValue("prefix")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no key provided")
	}

	if err := t.objects.Delete(c.Request().Context(), key); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/files/"+prefix)
}

func (a *App) handleCreateFolder(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	prefix := c.FormValue("prefix")
	name := strings.TrimSpace(c.FormValue("folder_name"))
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no folder name provided")
	}

	// A folder is an empty marker object with a trailing slash.
	key := prefix + name + "/"
	if err := t.objects.Put(c.Request().Context(), key, nil, "application/x-directory"); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/files/"+prefix)
}
