package harvest

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"regexp"
	"strings"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/harvesterrors"
)

// linkPattern extracts bare http(s) URLs out of a message body. No
// mbox/mail-parsing library appears anywhere in the pack, so this
// operator is built entirely on the standard library per DESIGN.md's
// stdlib justification for internal/harvest/email.go.
var linkPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// EmailOperator services journals whose harvester_operation_ is EMAIL
// (spec §4.1 "emailCrawl(item, mboxes, user_agent): scan mailbox files
// for messages whose subject matches emailcrawl_subject_regex_; extract
// links and emit harvestable items"). item.URL is unused; mailboxes come
// from global_params.mailbox_paths_.
type EmailOperator struct {
	mailboxPaths []string
}

func NewEmailOperator(mailboxPaths []string) *EmailOperator {
	return &EmailOperator{mailboxPaths: mailboxPaths}
}

func (o *EmailOperator) Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (Outcome, error) {
	journal := item.JournalRef
	if journal.EmailSubjectRegex == "" {
		return Outcome{}, nil
	}
	subjectPattern, err := regexp.Compile(journal.EmailSubjectRegex)
	if err != nil {
		return Outcome{}, harvesterrors.NewConfig("email_operator", "harvest", "invalid email subject regex", err)
	}

	seen := map[string]bool{}
	var children []domain.HarvestableItem

	for _, path := range o.mailboxPaths {
		select {
		case <-ctx.Done():
			return Outcome{Children: children}, ctx.Err()
		default:
		}

		msgs, err := scanMbox(path)
		if err != nil {
			continue // one unreadable mailbox does not fail the whole scan
		}
		for _, msg := range msgs {
			if !subjectPattern.MatchString(msg.subject) {
				continue
			}
			for _, link := range linkPattern.FindAllString(msg.body, -1) {
				if seen[link] {
					continue
				}
				seen[link] = true
				children = append(children, domain.NewItem(counter, link, journal))
			}
		}
	}

	return Outcome{Children: children}, nil
}

type mboxMessage struct {
	subject string
	body    string
}

// scanMbox splits a classic "From " delimited mbox file into individual
// RFC 5322 messages and decodes subject/body.
func scanMbox(path string) ([]mboxMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []mboxMessage
	var current bytes.Buffer
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if msg, err := parseMboxMessage(current.Bytes()); err == nil {
			messages = append(messages, msg)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "From ") && current.Len() > 0 {
			flush()
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()

	return messages, scanner.Err()
}

func parseMboxMessage(raw []byte) (mboxMessage, error) {
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 && bytes.HasPrefix(raw, []byte("From ")) {
		raw = raw[idx+1:]
	}

	m, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return mboxMessage{}, err
	}

	subject, err := (&mime.WordDecoder{}).DecodeHeader(m.Header.Get("Subject"))
	if err != nil {
		subject = m.Header.Get("Subject")
	}

	var bodyReader io.Reader = m.Body
	if strings.EqualFold(m.Header.Get("Content-Transfer-Encoding"), "quoted-printable") {
		bodyReader = quotedprintable.NewReader(m.Body)
	}
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return mboxMessage{}, err
	}

	return mboxMessage{subject: subject, body: string(body)}, nil
}
