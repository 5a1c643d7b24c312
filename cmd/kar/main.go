// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xlab/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/kiln/utility/kar"
)

func init() {
	if u, err := user.Current(); err == nil {
		currentUserName = u.Username
	}
}

var (
	currentUserName = "unknown"

	author   = flag.String("author", "", "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the given archive into the destination directory")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the contents of the given archive")
	dst      = flag.String("f", "out.kar", "Destination file when compressing, directory when extracting")
	force    = flag.Bool("force", false, "Overwrite the destination")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()

	var ops int
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops != 1 {
		if ops > 1 {
			fmt.Fprintln(os.Stderr, "only one operation at a time")
		}
		flag.PrintDefaults()
		os.Exit(2)
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dst)
	case *extract != "":
		err = extractFiles(*extract, *dst)
	case *list != "":
		err = listFiles(*list)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "kar: %v\n", err)
		os.Exit(1)
	}
}

func printf(format string, args ...interface{}) {
	if !*silent {
		fmt.Printf(format, args...)
	}
}

// collect returns every regular file under root with its archive name,
// which is the slash separated path relative to root.
func collect(root string) (map[string]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	files := make(map[string]string)
	if !info.IsDir() {
		files[filepath.Base(root)] = root
		return files, nil
	}
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = path
		return nil
	})
	return files, err
}

func compressFiles(src, dstFile string) error {
	if _, err := os.Stat(dstFile); err == nil && !*force {
		return errors.Newf("destination file %s exists, will not overwrite", dstFile)
	}
	files, err := collect(src)
	if err != nil {
		return errors.Wrap(err, "collecting files")
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	builder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer builder.Close()

	var g errgroup.Group
	for archiveName, path := range files {
		archiveName, path := archiveName, path
		g.Go(func() error {
			data, err := ioutil.ReadFile(path)
			if err != nil {
				return err
			}
			return builder.Add(archiveName, data)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "compressing")
	}

	f, err := os.Create(dstFile)
	if err != nil {
		return err
	}
	n, err := builder.WriteTo(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", dstFile)
	}
	if err := f.Close(); err != nil {
		return err
	}
	printf("%s: %d files, %d bytes\n", dstFile, builder.Len(), n)
	return nil
}

func extractFiles(archive, dir string) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, name := range ar.Names() {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(filepath.Separator)) {
			return errors.Newf("%s escapes the destination directory", name)
		}
		if err := extractFile(ar, name, target); err != nil {
			return errors.Wrapf(err, "extracting %s", name)
		}
		printf("%s\n", target)
	}
	return nil
}

func extractFile(ar *kar.Archive, name, target string) error {
	if _, err := os.Stat(target); err == nil && !*force {
		return errors.New("file exists, will not overwrite")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listFiles(archive string) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()

	h := ar.Header()
	table := tablewriter.CreateTable()
	table.AddTitle(filepath.Base(archive))
	table.AddRow("Author", h.Author)
	table.AddRow("Created", time.Unix(h.DateCreated, 0).Format(time.RFC3339))
	table.AddRow("Version", h.Version)
	table.AddSeparator()
	table.AddRow("NAME", "SIZE", "COMPRESSED")
	for _, name := range ar.Names() {
		entry, err := ar.Stat(name)
		if err != nil {
			return err
		}
		table.AddRow(entry.Name, entry.Size, entry.CompressedSize)
	}
	fmt.Print(table.Render())
	return nil
}
