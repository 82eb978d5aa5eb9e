package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/xaionaro-go/bytesextra"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
	"github.com/dskfs/rofs/fat32"
	"github.com/dskfs/rofs/quark"
)

func main() {
	app := &cli.App{
		Usage: "Inspect read-only FAT32 and Quark disk images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "image",
				Value: "test.fat32",
				Usage: "path to the disk image",
			},
			&cli.BoolFlag{
				Name:  "mem",
				Usage: "load the image into memory instead of opening it directly",
			},
		},
		Action: listRoot,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func listRoot(c *cli.Context) error {
	dev, err := openDevice(c.String("image"), c.Bool("mem"))
	if err != nil {
		return err
	}

	fs, merr := mount(dev)
	if merr != nil {
		return merr
	}
	defer fs.Destroy()

	entries, derr := fs.ReadDir("/")
	if derr != nil {
		return derr
	}

	for _, e := range entries {
		kind := "-"
		if e.Stat.IsDir() {
			kind = "d"
		}
		fmt.Printf("%s %10d %s\n", kind, e.Stat.Size, e.Name)
	}
	return nil
}

func openDevice(path string, mem bool) (*device.Device, error) {
	if !mem {
		dev, err := device.Open(path)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stream := bytesextra.NewReadWriteSeeker(data)
	return device.New(stream, uint64(len(data))/device.SectorSize), nil
}

// mount auto-detects the image's filesystem kind (spec §4.10): Quark's
// fixed superblock signature is checked first since it's a stronger signal
// than the BPB's jump+media-byte heuristics FAT32 validates.
func mount(dev *device.Device) (rofs.Filesystem, error) {
	if vol, err := quark.Mount(dev, 0); err == nil {
		return vol, nil
	}

	vol, err := fat32.Mount(dev, 0)
	if err != nil {
		return nil, fmt.Errorf("not a recognized FAT32 or Quark image: %w", err)
	}
	return vol, nil
}
