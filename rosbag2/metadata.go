package rosbag2

import (
	"os"
	"path/filepath"

	"go.viam.com/rosbags/rosbagerr"
	"gopkg.in/yaml.v3"
)

// topicMetadataYAML is one entry of topics_with_message_count, matching
// the nested shape real rosbag2 metadata.yaml uses.
type topicMetadataYAML struct {
	TopicMetadata struct {
		Name                string `yaml:"name"`
		Type                string `yaml:"type"`
		SerializationFormat string `yaml:"serialization_format"`
		OfferedQoSProfiles  string `yaml:"offered_qos_profiles"`
	} `yaml:"topic_metadata"`
	MessageCount uint64 `yaml:"message_count"`
}

type bagfileInformation struct {
	Version             int                 `yaml:"version"`
	BagID               string              `yaml:"bag_id"`
	StorageIdentifier   string              `yaml:"storage_identifier"`
	RelativeFilePaths   []string            `yaml:"relative_file_paths"`
	MessageCount        uint64              `yaml:"message_count"`
	StartTime           uint64              `yaml:"start_time"`
	EndTime             uint64              `yaml:"end_time"`
	CompressionFormat   string              `yaml:"compression_format"`
	CompressionMode     string              `yaml:"compression_mode"`
	TopicsWithMsgCounts []topicMetadataYAML `yaml:"topics_with_message_count"`
}

type metadataDocument struct {
	BagfileInformation bagfileInformation `yaml:"rosbag2_bagfile_information"`
}

// Metadata is the parsed contents of a rosbag2 metadata.yaml.
type Metadata struct {
	Version           int
	BagID             string
	StorageIdentifier string
	RelativeFilePaths []string
	MessageCount      uint64
	StartTime         uint64
	EndTime           uint64
	CompressionFormat string
	CompressionMode   CompressionMode
	Topics            []TopicCount
}

// TopicCount pairs a Topic with how many messages it carries.
type TopicCount struct {
	Topic        Topic
	MessageCount uint64
}

func readMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, rosbagerr.IO(err)
	}

	var doc metadataDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, rosbagerr.MetadataInvalid("parsing %s: %v", path, err)
	}
	info := doc.BagfileInformation
	if err := checkVersion(info.Version); err != nil {
		return nil, err
	}

	md := &Metadata{
		Version:           info.Version,
		BagID:             info.BagID,
		StorageIdentifier: info.StorageIdentifier,
		RelativeFilePaths: info.RelativeFilePaths,
		MessageCount:      info.MessageCount,
		StartTime:         info.StartTime,
		EndTime:           info.EndTime,
		CompressionFormat: info.CompressionFormat,
		CompressionMode:   CompressionMode(info.CompressionMode),
	}
	for _, t := range info.TopicsWithMsgCounts {
		md.Topics = append(md.Topics, TopicCount{
			Topic: Topic{
				Name:                t.TopicMetadata.Name,
				Type:                t.TopicMetadata.Type,
				SerializationFormat: t.TopicMetadata.SerializationFormat,
				OfferedQoSProfiles:  t.TopicMetadata.OfferedQoSProfiles,
			},
			MessageCount: t.MessageCount,
		})
	}
	if md.StorageIdentifier == "" {
		md.StorageIdentifier = storageIdentifier
	}
	return md, nil
}

// writeMetadata serializes md to path atomically: it writes to a
// sibling temp file first, then renames over path.
func writeMetadata(path string, md *Metadata) error {
	doc := metadataDocument{BagfileInformation: bagfileInformation{
		Version:           md.Version,
		BagID:             md.BagID,
		StorageIdentifier: md.StorageIdentifier,
		RelativeFilePaths: md.RelativeFilePaths,
		MessageCount:      md.MessageCount,
		StartTime:         md.StartTime,
		EndTime:           md.EndTime,
		CompressionFormat: md.CompressionFormat,
		CompressionMode:   string(md.CompressionMode),
	}}
	for _, tc := range md.Topics {
		var entry topicMetadataYAML
		entry.TopicMetadata.Name = tc.Topic.Name
		entry.TopicMetadata.Type = tc.Topic.Type
		entry.TopicMetadata.SerializationFormat = tc.Topic.SerializationFormat
		entry.TopicMetadata.OfferedQoSProfiles = tc.Topic.OfferedQoSProfiles
		entry.MessageCount = tc.MessageCount
		doc.BagfileInformation.TopicsWithMsgCounts = append(doc.BagfileInformation.TopicsWithMsgCounts, entry)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return rosbagerr.MetadataInvalid("marshaling metadata: %v", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".metadata-*.yaml.tmp")
	if err != nil {
		return rosbagerr.IO(err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return rosbagerr.IO(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return rosbagerr.IO(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return rosbagerr.IO(err)
	}
	return nil
}
