package asciidoc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	imagesdirDirective = regexp.MustCompile(`^:imagesdir:\s*(.+)$`)
	imageMacroRef      = regexp.MustCompile(`image:{1,2}([^\[]+)\[`)
	includeDirective   = regexp.MustCompile(`include::([^\[]+)\[`)
	lineComment        = regexp.MustCompile(`^\s*//`)
	blockCommentDelim  = regexp.MustCompile(`^\s*////\s*$`)
)

// CollectImages resolves every image referenced by an asciidoc file,
// following include:: directives recursively and honoring :imagesdir:
// redefinitions. Comments (// lines and //// blocks) are ignored. A
// referenced image that does not exist on disk is an error: uploading a
// document with dangling image references would produce broken media
// nodes.
func CollectImages(path string) ([]string, error) {
	var images []string
	processed := make(map[string]bool)
	baseDir := filepath.Dir(path)
	if err := collectImages(path, baseDir, baseDir, processed, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func collectImages(path, baseDir, imagesDir string, processed map[string]bool, images *[]string) error {
	if processed[path] {
		return nil
	}
	processed[path] = true

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var includes []string
	inBlockComment := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if blockCommentDelim.MatchString(line) {
			inBlockComment = !inBlockComment
			continue
		}
		if inBlockComment || lineComment.MatchString(line) {
			continue
		}
		if m := imagesdirDirective.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			imagesDir = normalizeAgainst(baseDir, strings.TrimSpace(m[1]))
		}
		if m := imageMacroRef.FindStringSubmatch(line); m != nil {
			target := strings.TrimSpace(m[1])
			if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
				imagePath := normalizeAgainst(imagesDir, target)
				if _, err := os.Stat(imagePath); err != nil {
					return fmt.Errorf("image not found: %s", imagePath)
				}
				*images = append(*images, imagePath)
			}
		}
		if m := includeDirective.FindStringSubmatch(line); m != nil {
			includes = append(includes, normalizeAgainst(filepath.Dir(path), strings.TrimSpace(m[1])))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for _, include := range includes {
		if err := collectImages(include, baseDir, imagesDir, processed, images); err != nil {
			return err
		}
	}
	return nil
}

func normalizeAgainst(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}
