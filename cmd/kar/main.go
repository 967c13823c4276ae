// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/devblok/gravity/utility/kar"
	log "github.com/sirupsen/logrus"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the archive given")
	compress        = flag.String("c", "", "Compress the given file/folder")
	list            = flag.String("l", "", "List the contents of the archive given")
	dstFile         = flag.String("f", "out.kar", "Destination file when compressing")
	dstDir          = flag.String("d", ".", "Destination directory when extracting")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.WithError(errors.New("only one operation at a time")).Fatal("kar")
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractFiles(*extract, *dstDir)
	case *list != "":
		err = listFiles(*list)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.WithError(err).Fatal("kar")
	}
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		if err := addFile(karBuilder, src, ftc); err != nil {
			return err
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := karBuilder.WriteTo(f)
	if err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}

	log.WithFields(log.Fields{
		"files": karBuilder.Len(),
		"bytes": n,
	}).Info("archive written to " + dst)
	return f.Close()
}

func addFile(b *kar.Builder, root, path string) error {
	name, err := filepath.Rel(root, path)
	if err != nil || name == "." {
		name = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	log.Debug("adding " + name)
	return b.Add(filepath.ToSlash(name), f)
}

func extractFiles(src, dir string) error {
	archive, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer archive.Close()

	for _, name := range archive.Names() {
		if err := extractFile(archive, name, dir); err != nil {
			return fmt.Errorf("%s: %s", name, err)
		}
	}
	return nil
}

func extractFile(archive *kar.Archive, name, dir string) error {
	dst := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	r, err := archive.Open(name)
	if err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}

	log.Debug("extracted " + dst)
	return f.Close()
}

func listFiles(src string) error {
	archive, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer archive.Close()

	header := archive.Header()
	fmt.Printf("author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	for _, entry := range header.Index {
		fmt.Printf("%10d %10d  %s\n", entry.Size, entry.CompressedSize, entry.Name)
	}
	return nil
}
