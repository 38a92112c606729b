package scanner

import (
	"os"
	"time"

	"github.com/djherbis/times"
)

// FileTimes holds the timestamps reported in FileMetadata.
type FileTimes struct {
	Created  time.Time
	Accessed time.Time
	Modified time.Time
}

// fileTimes stats path, following symlinks. Filesystems without a birth time
// report the change time as creation time, then the modification time.
func fileTimes(path string, info os.FileInfo) FileTimes {
	result := FileTimes{
		Created:  info.ModTime(),
		Accessed: info.ModTime(),
		Modified: info.ModTime(),
	}
	ts, err := times.Stat(path)
	if err != nil {
		return result
	}
	result.Accessed = ts.AccessTime()
	result.Modified = ts.ModTime()
	switch {
	case ts.HasBirthTime():
		result.Created = ts.BirthTime()
	case ts.HasChangeTime():
		result.Created = ts.ChangeTime()
	default:
		result.Created = ts.ModTime()
	}
	return result
}
