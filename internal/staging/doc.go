/*
Package staging owns the transient files of a conversion request: it streams
an uploaded multipart file into the staging directory under a unique name and
guarantees every file it hands out is removed again.

# Lifecycle

	dir, err := staging.Prepare("/var/lib/video-converter/uploads")
	if err != nil {
	    logging.Fatal("staging directory: %v", err) // startup error, not per request
	}

	req, err := dir.Stage(w, r, staging.UploadOptions{MaxBytes: 2 << 30, DefaultBitrate: 30})
	if errors.Is(err, staging.ErrUploadMissing) {
	    http.Error(w, "No file uploaded.", http.StatusBadRequest)
	    return
	}
	files := staging.NewTracker(req.ID)
	defer files.Release()
	files.Track(req.SourcePath, staging.KindInput)

Names are "<uuid><ext>", so concurrent uploads never collide and Sweep can
tell its own leftovers apart from anything else in the directory.

Sweep first takes an advisory lock on .owner.lock inside the directory. A
second server pointed at the same directory gets ErrInUse and leaves the
first one's in-flight files alone. Close drops the lock at shutdown.

# Removal

Remove treats an already-missing file as success, so cleanup is idempotent.
NFS stale file handle errors (ESTALE) are retried with exponential backoff;
every other failure is returned for the caller to log. A Tracker removes each
tracked path at most once no matter how often Release is called.
*/
package staging
