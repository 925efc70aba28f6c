package splitter

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/yuanying/splitepub/internal/epub"
)

// verifyPackage checks that every file the package documents point at
// exists in the book tree: the OPF named by container.xml, its manifest,
// and the NCX navigation targets.
func verifyPackage(bookDir string) error {
	container, err := os.ReadFile(filepath.Join(bookDir, "META-INF", "container.xml"))
	if err != nil {
		return missingOr(err, "META-INF/container.xml")
	}
	opfPath, err := epub.ParseContainer(container)
	if err != nil {
		return err
	}
	if err := requireFile(bookDir, opfPath); err != nil {
		return err
	}

	opfData, err := os.ReadFile(filepath.Join(bookDir, filepath.FromSlash(opfPath)))
	if err != nil {
		return fmt.Errorf("read %s: %w", opfPath, err)
	}
	opf, err := epub.ParseOPF(opfData, path.Dir(opfPath))
	if err != nil {
		return err
	}
	for _, href := range opf.Hrefs() {
		if err := requireFile(bookDir, href); err != nil {
			return err
		}
	}

	if opf.NCXPath == "" {
		return nil
	}
	ncxData, err := os.ReadFile(filepath.Join(bookDir, filepath.FromSlash(opf.NCXPath)))
	if err != nil {
		return fmt.Errorf("read %s: %w", opf.NCXPath, err)
	}
	ncx, err := epub.ParseNCX(ncxData, path.Dir(opf.NCXPath))
	if err != nil {
		return err
	}
	for _, np := range ncx.Flatten() {
		if np.ContentPath == "" {
			continue
		}
		if err := requireFile(bookDir, np.ContentPath); err != nil {
			return err
		}
	}
	return nil
}

func requireFile(bookDir, rel string) error {
	info, err := os.Stat(filepath.Join(bookDir, filepath.FromSlash(rel)))
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrDanglingReference, rel)
	}
	return nil
}
