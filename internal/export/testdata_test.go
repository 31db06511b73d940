package export

const sampleExport = `<?xml version="1.0" encoding="UTF-8" ?>
<rss version="2.0"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>Demo</title>
	<wp:base_site_url>https://demo.example</wp:base_site_url>
	<wp:base_blog_url>https://demo.example</wp:base_blog_url>
	<item>
		<title>logo</title>
		<guid isPermaLink="false">https://demo.example/wp-content/uploads/2024/01/logo.png</guid>
		<content:encoded><![CDATA[]]></content:encoded>
		<excerpt:encoded><![CDATA[]]></excerpt:encoded>
		<wp:post_id>12</wp:post_id>
		<wp:post_date>2024-01-02 03:04:05</wp:post_date>
		<wp:post_name>logo</wp:post_name>
		<wp:status>inherit</wp:status>
		<wp:post_parent>0</wp:post_parent>
		<wp:menu_order>0</wp:menu_order>
		<wp:post_type>attachment</wp:post_type>
		<wp:attachment_url>https://demo.example/wp-content/uploads/2024/01/logo.png</wp:attachment_url>
		<wp:postmeta>
			<wp:meta_key>_wp_attachment_image_alt</wp:meta_key>
			<wp:meta_value><![CDATA[Logo]]></wp:meta_value>
		</wp:postmeta>
	</item>
	<item>
		<title>Home</title>
		<content:encoded><![CDATA[<!-- wp:image {"id":12} --><img src="https://demo.example/wp-content/uploads/2024/01/logo.png"/><!-- /wp:image -->]]></content:encoded>
		<excerpt:encoded><![CDATA[Short]]></excerpt:encoded>
		<wp:post_id>5</wp:post_id>
		<wp:post_name>home</wp:post_name>
		<wp:status>publish</wp:status>
		<wp:menu_order>2</wp:menu_order>
		<wp:post_type>page</wp:post_type>
		<wp:postmeta>
			<wp:meta_key>_astra_settings</wp:meta_key>
			<wp:meta_value><![CDATA[a:2:{s:6:"layout";s:4:"full";s:5:"items";a:2:{i:0;i:1;i:1;s:1:"b";}}]]></wp:meta_value>
		</wp:postmeta>
	</item>
	<item>
		<title>Old</title>
		<wp:post_id>6</wp:post_id>
		<wp:post_name>old</wp:post_name>
		<wp:status>trash</wp:status>
		<wp:post_type>page</wp:post_type>
	</item>
	<item>
		<title>Hello</title>
		<wp:post_id>7</wp:post_id>
		<wp:status>publish</wp:status>
		<wp:post_type>post</wp:post_type>
	</item>
</channel>
</rss>`
